package accounts

import (
	"io"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
)

const (
	ViewVerificationSuccess = "verification-success"
	ViewPasswordReset       = "password-reset"
	ViewErrors              = "errors"

	EmailViewVerify        = "emails/verify"
	EmailViewPasswordReset = "emails/password-reset"
	EmailViewPasswordDone  = "emails/password-changed"
)

// ViewRenderer renders a named template into out
type ViewRenderer interface {
	Render(out io.Writer, name string, binding any, layout ...string) error
}

// NewViewEngine loads the django templates found in fsys. A nil fsys
// uses the embedded templates.
func NewViewEngine(fsys fs.FS) (*django.Engine, error) {
	if fsys == nil {
		fsys = GetViewsFS()
	}

	engine := django.NewFileSystem(http.FS(fsys), ".html")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load view templates")
	}

	return engine, nil
}
