package views

import (
	"context"

	"github.com/algenord/portal/router"
)

func (v *views) userList(ctx context.Context, _ router.Params) (router.Result, error) {
	users, err := v.api.ListUsers(ctx)
	if err != nil {
		return router.Result{}, err
	}
	return v.page(ctx, "user-list", users)
}

func (v *views) deleteUser(ctx context.Context, id, back string) (string, error) {
	if err := v.api.DeleteUser(ctx, id); err != nil {
		return v.backendFailed(ctx, back, err)
	}
	v.setFlash(ctx, Flash{Kind: FlashSuccess, Message: "User deleted."})
	return "/admin/users", nil
}

func (v *views) userListDelete(ctx context.Context, _ router.Params, form *router.Form) (string, error) {
	return v.deleteUser(ctx, form.Get("id"), "/admin/users")
}

func (v *views) userDetailDelete(ctx context.Context, params router.Params, _ *router.Form) (string, error) {
	return v.deleteUser(ctx, params["id"], "/admin/users/"+params["id"])
}

func (v *views) createUser(ctx context.Context, _ router.Params) (router.Result, error) {
	return v.page(ctx, "create-user", nil)
}

func (v *views) createUserSubmit(ctx context.Context, _ router.Params, form *router.Form) (string, error) {
	const self = "/admin/users/create"
	in, errs := userInput(form, true)
	if len(errs) > 0 {
		v.setFlash(ctx, errs.flash(form, userFields...))
		return self, nil
	}
	if _, err := v.api.CreateUser(ctx, in); err != nil {
		return v.backendFailed(ctx, self, err)
	}
	v.setFlash(ctx, Flash{Kind: FlashSuccess, Message: "User \"" + in.Username + "\" created successfully!"})
	return "/admin/users", nil
}

func (v *views) userDetail(ctx context.Context, params router.Params) (router.Result, error) {
	u, err := v.api.GetUser(ctx, params["id"])
	if err != nil {
		return router.Result{}, err
	}
	return v.page(ctx, "user-detail", u)
}

func (v *views) editUser(ctx context.Context, params router.Params) (router.Result, error) {
	u, err := v.api.GetUser(ctx, params["id"])
	if err != nil {
		return router.Result{}, err
	}
	return v.page(ctx, "edit-user", u)
}

func (v *views) editUserSubmit(ctx context.Context, params router.Params, form *router.Form) (string, error) {
	detail := "/admin/users/" + params["id"]
	in, errs := userInput(form, false)
	if len(errs) > 0 {
		v.setFlash(ctx, errs.flash(form, userFields...))
		return detail + "/edit", nil
	}
	if _, err := v.api.UpdateUser(ctx, params["id"], in); err != nil {
		return v.backendFailed(ctx, detail+"/edit", err)
	}
	v.setFlash(ctx, Flash{Kind: FlashSuccess, Message: "User updated successfully."})
	return detail, nil
}
