package web

import (
    "encoding/json"
    "errors"
    "net/http"

    "github.com/local/doctools/internal/docerr"
)

func writeJSON(wr http.ResponseWriter, code int, v any) {
    wr.Header().Set("Content-Type", "application/json")
    wr.WriteHeader(code)
    _ = json.NewEncoder(wr).Encode(v)
}

type errorBody struct {
    Error string      `json:"error"`
    Kind  docerr.Kind `json:"kind"`
    State any         `json:"state,omitempty"`
}

// statusFor maps a failure class to an HTTP status.
func statusFor(kind docerr.Kind) int {
    switch kind {
    case docerr.KindValidation:
        return http.StatusBadRequest
    case docerr.KindBusy:
        return http.StatusConflict
    case docerr.KindParse, docerr.KindUnsupported:
        return http.StatusUnprocessableEntity
    }
    return http.StatusInternalServerError
}

func writeFailure(wr http.ResponseWriter, msg string, err error, state any) {
    kind := docerr.KindOf(err)
    if msg == "" {
        msg = err.Error()
        var v *docerr.ValidationError
        if errors.As(err, &v) { msg = v.Message }
    }
    writeJSON(wr, statusFor(kind), errorBody{Error: msg, Kind: kind, State: state})
}
