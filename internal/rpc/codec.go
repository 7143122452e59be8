package rpc

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/goccy/go-json"
	"google.golang.org/protobuf/types/known/structpb"
)

// Field names of the Upsert and Delete request structs.
const (
	FieldEntityType = "entityType"
	FieldPayload    = "payload"
	FieldID         = "id"
)

var ErrMalformedRequest = errors.New("malformed request")

// normalize round-trips v through JSON so that named map and slice types
// become the plain map[string]any / []any structpb understands.
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PayloadToStruct converts a payload to a protobuf Struct.
func PayloadToStruct(p models.Payload) (*structpb.Struct, error) {
	n, err := normalize(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	m, _ := n.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return structpb.NewStruct(m)
}

// StructToPayload converts a protobuf Struct back to a payload.
func StructToPayload(s *structpb.Struct) models.Payload {
	if s == nil {
		return nil
	}
	return models.Payload(s.AsMap())
}

// NewUpsertRequest builds {"entityType": t, "payload": p}.
func NewUpsertRequest(entityType string, p models.Payload) (*structpb.Struct, error) {
	ps, err := PayloadToStruct(p)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldEntityType: structpb.NewStringValue(entityType),
		FieldPayload:    structpb.NewStructValue(ps),
	}}, nil
}

// ParseUpsertRequest is the inverse of NewUpsertRequest.
func ParseUpsertRequest(s *structpb.Struct) (string, models.Payload, error) {
	entityType := s.GetFields()[FieldEntityType].GetStringValue()
	payload := s.GetFields()[FieldPayload].GetStructValue()
	if entityType == "" || payload == nil {
		return "", nil, ErrMalformedRequest
	}
	return entityType, StructToPayload(payload), nil
}

// NewDeleteRequest builds {"entityType": t, "id": id}.
func NewDeleteRequest(entityType, id string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldEntityType: structpb.NewStringValue(entityType),
		FieldID:         structpb.NewStringValue(id),
	}}
}

// ParseDeleteRequest is the inverse of NewDeleteRequest.
func ParseDeleteRequest(s *structpb.Struct) (string, string, error) {
	entityType := s.GetFields()[FieldEntityType].GetStringValue()
	id := s.GetFields()[FieldID].GetStringValue()
	if entityType == "" || id == "" {
		return "", "", ErrMalformedRequest
	}
	return entityType, id, nil
}

// PayloadsToList encodes a list of payloads.
func PayloadsToList(records []models.Payload) (*structpb.ListValue, error) {
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(records))}
	for _, r := range records {
		s, err := PayloadToStruct(r)
		if err != nil {
			return nil, err
		}
		out.Values = append(out.Values, structpb.NewStructValue(s))
	}
	return out, nil
}

// ListToPayloads decodes a list of payloads, skipping non-object items.
func ListToPayloads(l *structpb.ListValue) []models.Payload {
	out := make([]models.Payload, 0, len(l.GetValues()))
	for _, v := range l.GetValues() {
		if s := v.GetStructValue(); s != nil {
			out = append(out, StructToPayload(s))
		}
	}
	return out
}
