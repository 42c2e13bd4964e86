package view

import (
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to the errors returned by a View.
const (
	TextCodeNotFound       = "E_NOT_FOUND"
	TextCodeEmptyComponent = "E_EMPTY_COMPONENT"
	TextCodeExistComponent = "E_EXIST_COMPONENT"
	TextCodeReadComponent  = "E_READ_COMPONENT"
	TextCodeRender         = "E_RENDER"
)

// NotFoundError reports a render of a name that is neither a resolvable view
// nor a registered component.
func NotFoundError(name string) *goerrors.Error {
	return goerrors.New(
		fmt.Sprintf("The view or component %s cannot be found.", name),
		goerrors.CategoryNotFound,
	).
		WithCode(http.StatusInternalServerError).
		WithTextCode(TextCodeNotFound).
		WithMetadata(map[string]any{
			"name": name,
			"help": fmt.Sprintf(`Create the component with CreateComponent(%q, "...") or mount a disk that contains it with CreateViewDisk.`, name),
		})
}

// EmptyComponentError reports a component registration without a body.
func EmptyComponentError(name string) *goerrors.Error {
	return goerrors.New(
		fmt.Sprintf(`The component %s cannot be registered with "null" or "undefined" value.`, name),
		goerrors.CategoryBadInput,
	).
		WithCode(http.StatusInternalServerError).
		WithTextCode(TextCodeEmptyComponent).
		WithMetadata(map[string]any{
			"name": name,
			"help": fmt.Sprintf(`Register at least an empty body, e.g. CreateComponent(%q, "").`, name),
		})
}

// AlreadyExistComponentError reports a component name that is already taken.
func AlreadyExistComponentError(name string) *goerrors.Error {
	return goerrors.New(
		fmt.Sprintf("The component %s already exists.", name),
		goerrors.CategoryConflict,
	).
		WithCode(http.StatusInternalServerError).
		WithTextCode(TextCodeExistComponent).
		WithMetadata(map[string]any{
			"name": name,
			"help": fmt.Sprintf("Use a different name, remove the existing one with RemoveComponent(%q), or call CreateTemplate to replace it.", name),
		})
}

func readComponentError(name, path string, err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryNotFound,
		fmt.Sprintf("The component %s could not be read from %s.", name, path),
	).
		WithTextCode(TextCodeReadComponent).
		WithMetadata(map[string]any{"name": name, "path": path})
}

func renderError(name string, err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal,
		fmt.Sprintf("The view %s failed to render.", name),
	).
		WithCode(http.StatusInternalServerError).
		WithTextCode(TextCodeRender).
		WithMetadata(map[string]any{"name": name})
}

// IsNotFound reports whether err was raised for an unknown view or component.
func IsNotFound(err error) bool {
	return hasTextCode(err, TextCodeNotFound)
}

// IsEmptyComponent reports whether err was raised for a component without body.
func IsEmptyComponent(err error) bool {
	return hasTextCode(err, TextCodeEmptyComponent)
}

// IsAlreadyExists reports whether err was raised for a duplicate component.
func IsAlreadyExists(err error) bool {
	return hasTextCode(err, TextCodeExistComponent)
}

func hasTextCode(err error, code string) bool {
	var e *goerrors.Error
	if !goerrors.As(err, &e) {
		return false
	}
	return e.TextCode == code
}
