package utils

// validator.go - валидация входных данных
//
// Ошибки собираются в ValidationErrors: список FieldError с типом,
// расположением (loc) и текстом. Формат совпадает с телом ответа 422:
//
//	{"detail": [{"type": "missing", "loc": ["body", "quantity"], "msg": "Field required"}]}

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Типы ошибок валидации
const (
	ErrTypeMissing      = "missing"
	ErrTypeJSONInvalid  = "json_invalid"
	ErrTypeObject       = "model_attributes_type"
	ErrTypeString       = "string_type"
	ErrTypeFloat        = "float_type"
	ErrTypeFloatParsing = "float_parsing"
	ErrTypeIntParsing   = "int_parsing"
	ErrTypeFiniteNumber = "finite_number"
)

// Тексты ошибок валидации
const (
	MsgFieldRequired  = "Field required"
	MsgJSONInvalid    = "JSON decode error"
	MsgObjectRequired = "Input should be a valid dictionary or object to extract fields from"
	MsgString         = "Input should be a valid string"
	MsgFloat          = "Input should be a valid number"
	MsgFloatParsing   = "Input should be a valid number, unable to parse string as a number"
	MsgIntParsing     = "Input should be a valid integer, unable to parse string as an integer"
	MsgFiniteNumber   = "Input should be a finite number"
)

// Источники поля (первый элемент loc)
const (
	LocBody  = "body"
	LocQuery = "query"
)

// FieldError - ошибка валидации одного поля
type FieldError struct {
	Type  string        `json:"type"`
	Loc   []interface{} `json:"loc"`
	Msg   string        `json:"msg"`
	Input interface{}   `json:"input,omitempty"`
}

// ValidationErrors - набор ошибок валидации запроса
type ValidationErrors []FieldError

// Error реализует интерфейс error
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		locs := make([]string, 0, len(fe.Loc))
		for _, l := range fe.Loc {
			switch x := l.(type) {
			case string:
				locs = append(locs, x)
			case int:
				locs = append(locs, strconv.Itoa(x))
			}
		}
		parts = append(parts, strings.Join(locs, ".")+": "+fe.Msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add добавляет ошибку поля
func (v *ValidationErrors) Add(errType, msg string, input interface{}, loc ...interface{}) {
	*v = append(*v, FieldError{Type: errType, Loc: loc, Msg: msg, Input: input})
}

// OrNil возвращает nil если ошибок нет
//
// Нужно чтобы не получить non-nil error с пустым слайсом внутри.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// DecodeObject разбирает JSON объект
//
// Возвращает ValidationErrors если данные не JSON или не объект.
func DecodeObject(data []byte, loc string) (map[string]interface{}, error) {
	var raw interface{}
	if err := jsonAPI.Unmarshal(data, &raw); err != nil {
		var errs ValidationErrors
		errs.Add(ErrTypeJSONInvalid, MsgJSONInvalid, nil, loc)
		return nil, errs
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		var errs ValidationErrors
		errs.Add(ErrTypeObject, MsgObjectRequired, raw, loc)
		return nil, errs
	}

	return obj, nil
}

// RequireString проверяет обязательное строковое поле
func RequireString(obj map[string]interface{}, field, loc string, errs *ValidationErrors) string {
	value, ok := obj[field]
	if !ok {
		errs.Add(ErrTypeMissing, MsgFieldRequired, nil, loc, field)
		return ""
	}

	s, ok := value.(string)
	if !ok {
		errs.Add(ErrTypeString, MsgString, value, loc, field)
		return ""
	}
	return s
}

// RequireNumber проверяет обязательное числовое поле
//
// Принимает JSON число или строку с числом ("12.34").
func RequireNumber(obj map[string]interface{}, field, loc string, errs *ValidationErrors) float64 {
	value, ok := obj[field]
	if !ok {
		errs.Add(ErrTypeMissing, MsgFieldRequired, nil, loc, field)
		return 0
	}

	switch v := value.(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs.Add(ErrTypeFloatParsing, MsgFloatParsing, v, loc, field)
			return 0
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			errs.Add(ErrTypeFiniteNumber, MsgFiniteNumber, v, loc, field)
			return 0
		}
		return f
	default:
		errs.Add(ErrTypeFloat, MsgFloat, value, loc, field)
		return 0
	}
}

// OptionalIntParam разбирает необязательный целочисленный параметр запроса
//
// Отсутствующий параметр - defaultValue. Присутствующий, но пустой
// (?offset=) - ошибка int_parsing.
func OptionalIntParam(query url.Values, field string, defaultValue int, errs *ValidationErrors) int {
	if !query.Has(field) {
		return defaultValue
	}

	raw := query.Get(field)
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		errs.Add(ErrTypeIntParsing, MsgIntParsing, raw, LocQuery, field)
		return defaultValue
	}
	return v
}
