package views

import (
	"fmt"
	"io"
	"mime/multipart"
	"regexp"
	"strings"
	"time"

	"github.com/algenord/portal/gateway"
	"github.com/algenord/portal/router"
)

// uploadSlots is the number of image rows an upload form offers.
const uploadSlots = 4

// User form limits.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 20
	PasswordMinLength = 6
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// fieldErrors collects validation messages keyed by form field.
type fieldErrors map[string]string

func (fe fieldErrors) flash(form *router.Form, fields ...string) Flash {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f] = form.Get(f)
	}
	return Flash{Kind: FlashError, Message: "Please correct the highlighted fields.", Fields: fe, Values: values}
}

var projectFields = []string{"title", "description", "workType", "customerType", "executionDate"}

// projectInput reads and validates the project fields of form.
func projectInput(form *router.Form) (gateway.ProjectInput, fieldErrors) {
	in := gateway.ProjectInput{
		Title:         strings.TrimSpace(form.Get("title")),
		Description:   strings.TrimSpace(form.Get("description")),
		WorkType:      form.Get("workType"),
		CustomerType:  form.Get("customerType"),
		ExecutionDate: form.Get("executionDate"),
	}
	errs := fieldErrors{}
	if in.Title == "" {
		errs["title"] = "Title is required."
	}
	if in.Description == "" {
		errs["description"] = "Description is required."
	}
	if !valid(WorkTypes, in.WorkType) {
		errs["workType"] = "Select a work type."
	}
	if !valid(CustomerTypes, in.CustomerType) {
		errs["customerType"] = "Select a customer type."
	}
	if _, err := time.Parse(time.DateOnly, in.ExecutionDate); err != nil {
		errs["executionDate"] = "Enter the execution date."
	}
	return in, errs
}

type uploadSlot struct {
	file *multipart.FileHeader
	meta gateway.ImageMetadata
}

// readUploadSlots reads the filled image rows of form. Row i posts image{i},
// imageType{i} and, when checked, featured{i}.
func readUploadSlots(form *router.Form) []uploadSlot {
	var slots []uploadSlot
	for i := range uploadSlots {
		files := form.Files[fmt.Sprintf("image%d", i)]
		if len(files) == 0 || files[0].Filename == "" {
			continue
		}
		slots = append(slots, uploadSlot{
			file: files[0],
			meta: gateway.ImageMetadata{
				ImageType:  form.Get(fmt.Sprintf("imageType%d", i)),
				IsFeatured: form.Get(fmt.Sprintf("featured%d", i)) != "",
			},
		})
	}
	return slots
}

func validateSlots(slots []uploadSlot, requireBeforeAndAfter bool) string {
	if len(slots) == 0 {
		return "Choose at least one image."
	}
	var before, after bool
	for _, s := range slots {
		switch s.meta.ImageType {
		case gateway.ImageBefore:
			before = true
		case gateway.ImageAfter:
			after = true
		default:
			return "Every image needs a type."
		}
	}
	if requireBeforeAndAfter && (!before || !after) {
		return "You must upload at least one BEFORE and one AFTER image."
	}
	return ""
}

// openUploads opens the files of slots. The returned closer closes every
// opened file.
func openUploads(slots []uploadSlot) ([]gateway.ImageUpload, func(), error) {
	var files []io.Closer
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	uploads := make([]gateway.ImageUpload, 0, len(slots))
	for _, s := range slots {
		f, err := s.file.Open()
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open upload %q: %w", s.file.Filename, err)
		}
		files = append(files, f)
		uploads = append(uploads, gateway.ImageUpload{Filename: s.file.Filename, Content: f, Metadata: s.meta})
	}
	return uploads, closeAll, nil
}

var userFields = []string{"username", "email"}

// userInput reads and validates a user form. On create the password is
// required and must be confirmed; on edit an empty password keeps the
// current one.
func userInput(form *router.Form, create bool) (gateway.UserInput, fieldErrors) {
	in := gateway.UserInput{
		Username: strings.TrimSpace(form.Get("username")),
		Email:    strings.TrimSpace(form.Get("email")),
		Password: form.Get("password"),
	}
	errs := fieldErrors{}
	switch n := len([]rune(in.Username)); {
	case n == 0:
		errs["username"] = "Username is required."
	case n < UsernameMinLength:
		errs["username"] = fmt.Sprintf("Username must be at least %d characters.", UsernameMinLength)
	case n > UsernameMaxLength:
		errs["username"] = fmt.Sprintf("Username must be at most %d characters.", UsernameMaxLength)
	}
	switch {
	case in.Email == "":
		errs["email"] = "Email is required."
	case !emailPattern.MatchString(in.Email):
		errs["email"] = "Please enter a valid email address."
	}
	switch {
	case in.Password == "" && create:
		errs["password"] = "Password is required."
	case in.Password != "" && len(in.Password) < PasswordMinLength:
		errs["password"] = fmt.Sprintf("Password must be at least %d characters.", PasswordMinLength)
	}
	if create || in.Password != "" {
		switch confirm := form.Get("confirmPassword"); {
		case confirm == "":
			errs["confirmPassword"] = "Confirm the password."
		case confirm != in.Password:
			errs["confirmPassword"] = "Passwords do not match."
		}
	}
	return in, errs
}
