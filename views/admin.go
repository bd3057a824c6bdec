package views

import (
	"context"
	"strconv"

	"github.com/algenord/portal/gateway"
	"github.com/algenord/portal/router"
)

func (v *views) dashboard(ctx context.Context, _ router.Params) (router.Result, error) {
	category := router.Query(ctx).Get("category")
	if !valid(WorkTypes, category) {
		category = ""
	}
	projects, err := v.api.ListProjects(ctx, gateway.ProjectFilters{WorkType: category}, false)
	if err != nil {
		return router.Result{}, err
	}
	return v.page(ctx, "dashboard", struct {
		Category string
		Projects []projectCard
	}{category, v.cards(projects)})
}

func (v *views) dashboardDelete(ctx context.Context, _ router.Params, form *router.Form) (string, error) {
	back := "/admin"
	if c := form.Get("category"); valid(WorkTypes, c) {
		back += "?category=" + c
	}
	if err := v.api.DeleteProject(ctx, form.Get("id")); err != nil {
		return v.backendFailed(ctx, back, err)
	}
	v.setFlash(ctx, Flash{Kind: FlashSuccess, Message: "Projektet blev slettet succesfuldt."})
	return back, nil
}

func (v *views) createProject(ctx context.Context, _ router.Params) (router.Result, error) {
	return v.page(ctx, "create-project", slotIndexes())
}

func (v *views) createProjectSubmit(ctx context.Context, _ router.Params, form *router.Form) (string, error) {
	const self = "/create-project"
	in, errs := projectInput(form)
	slots := readUploadSlots(form)
	if msg := validateSlots(slots, true); msg != "" {
		errs["images"] = msg
	}
	if len(errs) > 0 {
		v.setFlash(ctx, errs.flash(form, projectFields...))
		return self, nil
	}

	uploads, closeAll, err := openUploads(slots)
	if err != nil {
		return "", err
	}
	defer closeAll()

	if _, err := v.api.CreateProject(ctx, in, uploads); err != nil {
		return v.backendFailed(ctx, self, err)
	}
	v.setFlash(ctx, Flash{Kind: FlashSuccess, Message: "Project created successfully!"})
	return "/admin", nil
}

func slotIndexes() []int {
	idx := make([]int, uploadSlots)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (v *views) editProject(ctx context.Context, params router.Params) (router.Result, error) {
	p, err := v.api.GetProject(ctx, params["id"])
	if err != nil {
		return router.Result{}, err
	}
	return v.page(ctx, "edit-project", struct {
		Project *gateway.Project
		Slots   []int
	}{p, slotIndexes()})
}

func (v *views) editProjectSubmit(ctx context.Context, params router.Params, form *router.Form) (string, error) {
	self := "/edit-project/" + params["id"]
	in, errs := projectInput(form)
	if len(errs) > 0 {
		v.setFlash(ctx, errs.flash(form, projectFields...))
		return self, nil
	}
	if _, err := v.api.UpdateProject(ctx, params["id"], in); err != nil {
		return v.backendFailed(ctx, self, err)
	}
	v.setFlash(ctx, Flash{Kind: FlashSuccess, Message: "Projekt opdateret!"})
	return "/admin", nil
}

func (v *views) editProjectUpload(ctx context.Context, params router.Params, form *router.Form) (string, error) {
	self := "/edit-project/" + params["id"]
	slots := readUploadSlots(form)
	if msg := validateSlots(slots, false); msg != "" {
		v.setFlash(ctx, Flash{Kind: FlashError, Message: msg})
		return self, nil
	}

	uploads, closeAll, err := openUploads(slots)
	if err != nil {
		return "", err
	}
	defer closeAll()

	if err := v.api.UploadProjectImages(ctx, params["id"], uploads); err != nil {
		return v.backendFailed(ctx, self, err)
	}
	v.setFlash(ctx, Flash{Kind: FlashSuccess, Message: "Billederne blev uploadet."})
	return self, nil
}

func (v *views) editImage(ctx context.Context, params router.Params) (router.Result, error) {
	p, err := v.api.GetProject(ctx, params["id"])
	if err != nil {
		return router.Result{}, err
	}
	for _, img := range p.Images {
		if strconv.FormatInt(img.ID, 10) == params["imageId"] {
			return v.page(ctx, "edit-image", struct {
				Project *gateway.Project
				Image   gateway.Image
			}{p, img})
		}
	}
	return v.page(ctx, "missing", "Billede ikke fundet.")
}

func (v *views) editImageSubmit(ctx context.Context, params router.Params, form *router.Form) (string, error) {
	project := "/edit-project/" + params["id"]
	self := project + "/images/" + params["imageId"]
	meta := gateway.ImageMetadata{
		ImageType:  form.Get("imageType"),
		IsFeatured: form.Get("isFeatured") != "",
	}
	if meta.ImageType != gateway.ImageBefore && meta.ImageType != gateway.ImageAfter {
		v.setFlash(ctx, Flash{Kind: FlashError, Message: "Vælg en billedtype."})
		return self, nil
	}
	if err := v.api.UpdateImageMetadata(ctx, params["id"], params["imageId"], meta); err != nil {
		return v.backendFailed(ctx, self, err)
	}
	v.setFlash(ctx, Flash{Kind: FlashSuccess, Message: "Billedet blev opdateret!"})
	return project, nil
}

// editImageReplace uploads a new file with the image's current metadata
// and then removes the old image.
func (v *views) editImageReplace(ctx context.Context, params router.Params, form *router.Form) (string, error) {
	project := "/edit-project/" + params["id"]
	self := project + "/images/" + params["imageId"]
	files := form.Files["image"]
	if len(files) == 0 || files[0].Filename == "" {
		v.setFlash(ctx, Flash{Kind: FlashError, Message: "Vælg en fil."})
		return self, nil
	}
	uploads, closeAll, err := openUploads([]uploadSlot{{
		file: files[0],
		meta: gateway.ImageMetadata{
			ImageType:  form.Get("imageType"),
			IsFeatured: form.Get("isFeatured") != "",
		},
	}})
	if err != nil {
		return "", err
	}
	defer closeAll()

	if err := v.api.UploadProjectImages(ctx, params["id"], uploads); err != nil {
		return v.backendFailed(ctx, self, err)
	}
	if err := v.api.DeleteImage(ctx, params["id"], params["imageId"]); err != nil {
		return v.backendFailed(ctx, project, err)
	}
	v.setFlash(ctx, Flash{Kind: FlashSuccess, Message: "Billedet blev udskiftet."})
	return project, nil
}

func (v *views) editImageDelete(ctx context.Context, params router.Params, _ *router.Form) (string, error) {
	project := "/edit-project/" + params["id"]
	if err := v.api.DeleteImage(ctx, params["id"], params["imageId"]); err != nil {
		return v.backendFailed(ctx, project+"/images/"+params["imageId"], err)
	}
	v.setFlash(ctx, Flash{Kind: FlashSuccess, Message: "Billedet blev slettet."})
	return project, nil
}
