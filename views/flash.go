package views

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// flashKey is the short-lived key holding the next page's message.
const flashKey = "flash"

// Flash kinds.
const (
	FlashError   = "error"
	FlashSuccess = "success"
)

// Flash is a one-shot message carried from a form action to the page it
// navigates to. Fields holds per-field validation messages and Values the
// submitted input to put back into the form.
type Flash struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Values  map[string]string `json:"values,omitempty"`
}

func (v *views) setFlash(ctx context.Context, f Flash) {
	if v.flash == nil {
		return
	}
	b, err := json.Marshal(f)
	if err != nil {
		return
	}
	if err := v.flash.Put(ctx, flashKey, b); err != nil {
		v.logger.Warn("storing flash message failed", zap.Error(err))
	}
}

func (v *views) peekFlash(ctx context.Context) *Flash {
	if v.flash == nil {
		return nil
	}
	raw, err := v.flash.Get(ctx, flashKey)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil {
		v.clearFlash(ctx)
		return nil
	}
	return &f
}

func (v *views) clearFlash(ctx context.Context) {
	if v.flash == nil {
		return
	}
	if err := v.flash.Delete(ctx, flashKey); err != nil {
		v.logger.Warn("clearing flash message failed", zap.Error(err))
	}
}
