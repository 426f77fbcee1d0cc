package echoapi

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that renders every error as
// {"success":false,"message":...,"errors":{field:message}}.
func newAppHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code    int
			message string
			fields  map[string]string
		)

		var vErr *core.ValidationError
		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = fmt.Sprint(origErr.Message)
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = fmt.Sprint(origErr.Message)
		case validator.ValidationErrors:
			fields = make(map[string]string, len(origErr))
			for _, fe := range origErr {
				fields[fe.Field()] = fe.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			message = "invalid input"
		default:
			switch {
			case errors.As(err, &vErr):
				code = http.StatusBadRequest
				message = vErr.Error()
				if len(vErr.Fields) > 0 {
					fields = vErr.FieldMap()
				}
			case core.IsNotFound(err):
				code = http.StatusNotFound
				message = "not found"
			default: // any other error is a server error
				code = http.StatusInternalServerError
				message = http.StatusText(http.StatusInternalServerError)
				logger.Error(message, errors.Wrap(err, message), map[string]interface{}{"path": ctx.Path()})
			}
		}

		body := echo.Map{"success": false, "message": message}
		if fields != nil {
			body["errors"] = fields
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// fieldMessage translates the validator errors ValidateMap reported for field.
func fieldMessage(field string, errs interface{}) string {
	vErrs, ok := errs.(validator.ValidationErrors)
	if !ok || len(vErrs) == 0 {
		return fmt.Sprint(errs)
	}
	fe := vErrs[0]
	msg := strings.TrimSpace(fe.Translate(core.Translator))
	if fe.Tag() == "required" {
		return msg
	}
	// map values carry no field name of their own
	return field + " " + msg
}

func sortFields(flds []core.FieldError) {
	sort.Slice(flds, func(i, j int) bool { return flds[i].Field < flds[j].Field })
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
