package insight

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/cheercheung/chatrecap-sub001/internal/errs"
)

var (
	vOnce  sync.Once
	vInst  *validator.Validate
	vTrans ut.Translator
)

func structValidator() (*validator.Validate, ut.Translator) {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			if tag == "" || tag == "-" {
				return fld.Name
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		_ = v.RegisterTranslation("required", trans,
			func(ut ut.Translator) error {
				return ut.Add("required", "missing field {0}", true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				msg, _ := ut.T("required", fieldPath(fe))
				return msg
			},
		)
		vInst, vTrans = v, trans
	})
	return vInst, vTrans
}

// fieldPath drops the root type name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// Validate extracts the first balanced JSON object from raw and checks its
// shape. Semantics are never judged.
func Validate(raw string) (*AIInsights, error) {
	obj, ok := ExtractJSON(raw)
	if !ok {
		return nil, errs.New(errs.AIResponseMalformed, "AI response contained no JSON object")
	}

	var out AIInsights
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, errs.WithField(
				errs.Wrapf(err, errs.AIResponseInvalid, "field %s has the wrong type", typeErr.Field),
				typeErr.Field)
		}
		return nil, errs.Wrap(err, errs.AIResponseMalformed, "AI response JSON could not be parsed")
	}

	v, trans := structValidator()
	if err := v.Struct(&out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, errs.WithField(errs.New(errs.AIResponseInvalid, fe.Translate(trans)), fieldPath(fe))
		}
		return nil, errs.Wrap(err, errs.AIResponseInvalid, "AI response failed validation")
	}
	return &out, nil
}

// ExtractJSON returns the first balanced top-level {...} in s. Braces inside
// JSON strings are ignored. An unbalanced candidate is skipped in favor of
// the next opening brace.
func ExtractJSON(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end, ok := balancedEnd(s, start); ok {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func balancedEnd(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
