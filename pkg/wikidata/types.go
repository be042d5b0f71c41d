package wikidata

import "encoding/json"

// Term is a single language/value pair as returned by wbgetentities.
type Term struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

// Sitelink is one site link on an entity.
type Sitelink struct {
	Site  string `json:"site"`
	Title string `json:"title"`
}

// Entity is a Wikidata entity. An entity is either fully present or reported
// missing by the API; a missing entity never reaches callers.
type Entity struct {
	ID           string              `json:"id"`
	Missing      bool                `json:"missing,omitempty"`
	Labels       map[string]Term     `json:"labels,omitempty"`
	Descriptions map[string]Term     `json:"descriptions,omitempty"`
	Aliases      map[string][]Term   `json:"aliases,omitempty"`
	Claims       map[string][]Claim  `json:"claims,omitempty"`
	Sitelinks    map[string]Sitelink `json:"sitelinks,omitempty"`
}

// Claim is one property assertion on an entity.
type Claim struct {
	Mainsnak Snak   `json:"mainsnak"`
	Rank     string `json:"rank,omitempty"`
}

// Snak carries either a concrete datavalue or a novalue/somevalue sentinel.
// Consumers must check DataValue for nil before dereferencing.
type Snak struct {
	SnakType  string     `json:"snaktype"`
	Property  string     `json:"property"`
	DataValue *DataValue `json:"datavalue,omitempty"`
}

// DataValue is the typed payload of a snak.
type DataValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// EntityID decodes a wikibase-entityid value and returns the target QID.
func (d *DataValue) EntityID() (string, bool) {
	if d == nil || d.Type != "wikibase-entityid" {
		return "", false
	}
	var v struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(d.Value, &v); err != nil || v.ID == "" {
		return "", false
	}
	return v.ID, true
}

// Str decodes a plain string value (commons filenames, external ids).
func (d *DataValue) Str() (string, bool) {
	if d == nil || d.Type != "string" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(d.Value, &s); err != nil {
		return "", false
	}
	return s, true
}

// Time decodes a time value, returning the timestamp and its precision code.
func (d *DataValue) Time() (value string, precision int, ok bool) {
	if d == nil || d.Type != "time" {
		return "", 0, false
	}
	var v struct {
		Time      string `json:"time"`
		Precision int    `json:"precision"`
	}
	if err := json.Unmarshal(d.Value, &v); err != nil || v.Time == "" {
		return "", 0, false
	}
	return v.Time, v.Precision, true
}

// FirstDatavalue returns the datavalue of the first claim for pid, or nil if
// the property is absent or the first claim carries no value.
func FirstDatavalue(e *Entity, pid string) *DataValue {
	if e == nil {
		return nil
	}
	claims, ok := e.Claims[pid]
	if !ok || len(claims) == 0 {
		return nil
	}
	return claims[0].Mainsnak.DataValue
}

// LinkedQIDs collects the target entity ids of every claim for pid that
// carries a datavalue. Claims with novalue/somevalue snaks are skipped.
func LinkedQIDs(e *Entity, pid string) []string {
	if e == nil {
		return nil
	}
	var out []string
	for _, claim := range e.Claims[pid] {
		if id, ok := claim.Mainsnak.DataValue.EntityID(); ok {
			out = append(out, id)
		}
	}
	return out
}
