package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Schema is the ordered set of tables of the uploaded database.
type Schema struct {
	Tables []Table
}

// NewSchema builds a schema from tables in display order.
func NewSchema(tables ...Table) *Schema {
	s := &Schema{Tables: make([]Table, 0, len(tables))}
	for _, t := range tables {
		s.Tables = append(s.Tables, Table{Name: t.Name, Columns: append([]Column(nil), t.Columns...)})
	}
	return s
}

// TableNames returns table names in display order.
func (s *Schema) TableNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// Table returns the named table.
func (s *Schema) Table(name string) (Table, bool) {
	if s == nil {
		return Table{}, false
	}
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// HasTable reports whether the schema contains the named table.
func (s *Schema) HasTable(name string) bool {
	_, ok := s.Table(name)
	return ok
}

// Len returns the number of tables.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Tables)
}

// Clone returns a deep copy so no slices are shared with the caller.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	return NewSchema(s.Tables...)
}

// MarshalJSON writes the schema as an object keyed by table name, keeping
// table order.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range s.Tables {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(t.Name)
		if err != nil {
			return nil, err
		}
		cols := t.Columns
		if cols == nil {
			cols = []Column{}
		}
		val, err := json.Marshal(cols)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keyed by table name. Key order in the
// document is the display order.
func (s *Schema) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		s.Tables = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("schema: expected object, got %v", tok)
	}

	s.Tables = s.Tables[:0]
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("schema: expected table name, got %v", keyTok)
		}
		var cols []Column
		if err := dec.Decode(&cols); err != nil {
			return fmt.Errorf("schema: table %q: %w", name, err)
		}
		s.Tables = append(s.Tables, Table{Name: name, Columns: cols})
	}
	_, err = dec.Token()
	return err
}

// UnmarshalJSON accepts notnull and pk as booleans or as the 0/1 integers
// SQLite's table_info pragma reports.
func (c *Column) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name       string   `json:"name"`
		Type       string   `json:"type"`
		NotNull    flexBool `json:"notnull"`
		PrimaryKey flexBool `json:"pk"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.Name = aux.Name
	c.Type = aux.Type
	c.NotNull = bool(aux.NotNull)
	c.PrimaryKey = bool(aux.PrimaryKey)
	return nil
}

type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	switch raw {
	case "null", "":
		*b = false
		return nil
	case "true":
		*b = true
		return nil
	case "false":
		*b = false
		return nil
	}
	if unq, err := strconv.Unquote(raw); err == nil {
		raw = unq
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid boolean %s", string(data))
	}
	*b = n != 0
	return nil
}
