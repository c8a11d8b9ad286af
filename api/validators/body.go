package validators

import (
	"encoding/json"
	"io"
	"net/http"

	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/validation"
)

// DecodeJSONBody decodes the request body into dest and runs its validate tags.
func DecodeJSONBody(r *http.Request, dest any) error {
	if err := decode(r, dest, true); err != nil {
		return err
	}
	return validation.Struct(dest)
}

// DecodeJSONBodyLoose decodes without rejecting unknown fields or validating. Record
// payloads go through per-kind rules afterwards.
func DecodeJSONBodyLoose(r *http.Request, dest any) error {
	return decode(r, dest, false)
}

func decode(r *http.Request, dest any, strict bool) error {
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(r.Body)
	if strict {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
	}
	return nil
}
