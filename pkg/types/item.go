package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateFields lists the payload fields that hold timestamps. They are stored as
// RFC 3339 strings and revived into time.Time whenever an Item is decoded, so
// every backend hands back the same Go values.
var DateFields = []string{
	"createdAt",
	"updatedAt",
	"completedAt",
	"dueDate",
	"scheduledAt",
	"startedAt",
	"remindAt",
	"deletedAt",
}

// Item is one application record (note, task, journal entry). Only the id and
// the type discriminator are interpreted by the storage core; the rest of the
// record travels as an opaque payload.
//
// The payload must not carry "id" or "type" keys; Validate rejects them. After
// decoding, payload values have their generic JSON form: numbers are
// json.Number, objects are map[string]any, and only DateFields are typed.
type Item struct {
	ID      string
	Type    string
	Payload map[string]any
}

// ItemCollection is the ordered item list plus the undo system's
// skipHistory flag. Order is insertion order.
type ItemCollection struct {
	Items       []Item `json:"items"`
	SkipHistory bool   `json:"skipHistory"`
}

// Time returns the revived timestamp stored under field, if any.
func (it Item) Time(field string) (time.Time, bool) {
	t, ok := it.Payload[field].(time.Time)
	return t, ok
}

// MarshalJSON flattens the item: id and type first, payload fields after.
func (it Item) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(it.Payload)+2)
	for k, v := range it.Payload {
		flat[k] = v
	}
	flat["id"] = it.ID
	flat["type"] = it.Type
	return json.Marshal(flat)
}

// UnmarshalJSON reads a flat item record and revives DateFields.
func (it *Item) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var flat map[string]any
	if err := dec.Decode(&flat); err != nil {
		return err
	}
	if flat == nil {
		return fmt.Errorf("item: expected object")
	}

	id, _ := flat["id"].(string)
	typ, _ := flat["type"].(string)
	delete(flat, "id")
	delete(flat, "type")

	it.ID = id
	it.Type = typ
	it.Payload = ReviveDates(flat)
	return nil
}

// ReviveDates replaces RFC 3339 strings under DateFields with time.Time values.
// Values that do not parse are left untouched.
func ReviveDates(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	for _, field := range DateFields {
		s, ok := payload[field].(string)
		if !ok || s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			payload[field] = t
		}
	}
	return payload
}

// Validate checks that every item has a non-empty, unique id and a payload
// free of the reserved "id" and "type" keys.
func (c ItemCollection) Validate() error {
	seen := make(map[string]struct{}, len(c.Items))
	for i, it := range c.Items {
		if it.ID == "" {
			return fmt.Errorf("item %d: %w", i, ErrInvalidID)
		}
		for _, k := range []string{"id", "type"} {
			if _, ok := it.Payload[k]; ok {
				return fmt.Errorf("item %q: %w: %s", it.ID, ErrReservedField, k)
			}
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("item %q: %w", it.ID, ErrDuplicateID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}

// IDs returns the item ids in collection order.
func (c ItemCollection) IDs() []string {
	ids := make([]string, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.ID
	}
	return ids
}

// EmptyItems is the default collection returned when nothing is stored.
func EmptyItems() ItemCollection {
	return ItemCollection{Items: []Item{}}
}
