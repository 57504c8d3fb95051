package command

import (
	"encoding/json"
	"strconv"

	"voicebox-go/errcode"
)

// Kind tags the variant held by a Result.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindText
	KindObject
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindText:
		return "text"
	case KindObject:
		return "object"
	case KindError:
		return "error"
	default:
		return "invalid"
	}
}

// Result is the tagged outcome of a command handler:
// Bool | Int | Text | Object | Error.
type Result struct {
	kind Kind
	b    bool
	i    int64
	s    string
	obj  any
	err  error
}

func Bool(v bool) Result   { return Result{kind: KindBool, b: v} }
func Int(v int64) Result   { return Result{kind: KindInt, i: v} }
func Text(v string) Result { return Result{kind: KindText, s: v} }

// Object wraps a small structured value. T should marshal to a JSON object.
func Object[T any](v T) Result { return Result{kind: KindObject, obj: v} }

// Fail carries an error. A nil err is recorded as errcode.Error so a failure
// can never masquerade as success.
func Fail(err error) Result {
	if err == nil {
		err = errcode.Error
	}
	return Result{kind: KindError, err: err}
}

func (r Result) Kind() Kind    { return r.kind }
func (r Result) IsError() bool { return r.kind == KindError }

// Err returns the carried error, or nil for success variants.
func (r Result) Err() error { return r.err }

// Code is errcode.OK for success and the error's code otherwise.
func (r Result) Code() errcode.Code { return errcode.Of(r.err) }

func (r Result) AsBool() (bool, bool)   { return r.b, r.kind == KindBool }
func (r Result) AsInt() (int64, bool)   { return r.i, r.kind == KindInt }
func (r Result) AsText() (string, bool) { return r.s, r.kind == KindText }
func (r Result) AsObject() (any, bool)  { return r.obj, r.kind == KindObject }

// Encode renders the result as the text the dispatcher puts on the wire.
func (r Result) Encode() (string, error) {
	switch r.kind {
	case KindBool:
		return strconv.FormatBool(r.b), nil
	case KindInt:
		return strconv.FormatInt(r.i, 10), nil
	case KindText:
		return r.s, nil
	case KindObject:
		b, err := json.Marshal(r.obj)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case KindError:
		return "", r.err
	default:
		return "", errcode.Error
	}
}
