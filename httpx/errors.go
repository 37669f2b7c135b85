package httpx

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/SambhavSharma7781/Forms4U-sub000/log"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	w.WriteHeader(http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Success sends the {success:true} envelope used by the form-editing API.
func Success(w http.ResponseWriter, r *http.Request, msg string, extra map[string]any) {
	body := map[string]any{
		"success": true,
		"message": msg,
	}
	for k, v := range extra {
		body[k] = v
	}
	render.JSON(w, r, body)
}

// Failure logs the error and sends the {success:false} envelope with the
// given status. details is optional diagnostic text for the UI.
func Failure(w http.ResponseWriter, r *http.Request, status int, code string, errMsg string, details string) {
	log.Log(levelFor(status), code+":", errMsg)

	body := map[string]any{
		"success": false,
		"error":   errMsg,
	}
	if details != "" {
		body["details"] = details
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}

func levelFor(status int) log.Level {
	if status >= 500 {
		return log.ErrorLevel
	}
	return log.DebugLevel
}
