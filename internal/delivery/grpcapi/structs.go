package grpcapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStruct converts any JSON-serialisable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// args reads request fields leniently: numbers and booleans are accepted
// where strings are expected.
type args struct {
	fields map[string]*structpb.Value
}

func argsOf(in *structpb.Struct) args {
	return args{fields: in.GetFields()}
}

func (a args) str(key string) string {
	v, ok := a.fields[key]
	if !ok {
		return ""
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue)
	}
	return ""
}

func (a args) int(key string) int {
	if v, ok := a.fields[key]; ok {
		if n, isNum := v.GetKind().(*structpb.Value_NumberValue); isNum {
			return int(n.NumberValue)
		}
	}
	n, _ := strconv.Atoi(a.str(key))
	return n
}

func (a args) bool(key string) bool {
	b, _ := strconv.ParseBool(a.str(key))
	return b
}

func (a args) has(key string) bool {
	_, ok := a.fields[key]
	return ok
}

// strs accepts a list or a single string.
func (a args) strs(key string) []string {
	v, ok := a.fields[key]
	if !ok {
		return nil
	}
	if list := v.GetListValue(); list != nil {
		out := make([]string, 0, len(list.GetValues()))
		for _, item := range list.GetValues() {
			out = append(out, args{fields: map[string]*structpb.Value{"v": item}}.str("v"))
		}
		return out
	}
	if s := a.str(key); s != "" {
		return []string{s}
	}
	return nil
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func (a args) time(key string) (time.Time, error) {
	s := a.str(key)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s: unrecognised time %q", domain.ErrInvalidParams, key, s)
}

func (a args) require(keys ...string) error {
	for _, k := range keys {
		if a.str(k) == "" {
			return fmt.Errorf("%w: %s is required", domain.ErrInvalidParams, k)
		}
	}
	return nil
}
