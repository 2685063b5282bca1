package scmapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// decodeList acepta las formas de lista que devuelve la API:
// [...], {"content":[...]}, {"data":[...]} y {"data":{"content":[...]}}.
func decodeList(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	switch data[0] {
	case '[':
		var out []json.RawMessage
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decodificar lista: %w", err)
		}
		return out, nil
	case '{':
		var env struct {
			Content json.RawMessage `json:"content"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decodificar sobre de lista: %w", err)
		}
		if len(env.Content) > 0 {
			return decodeList(env.Content)
		}
		if len(env.Data) > 0 {
			return decodeList(env.Data)
		}
	}
	return nil, fmt.Errorf("respuesta no es una lista: %.64s", data)
}

// decodeOne devuelve el objeto de la respuesta; si llega una lista, su primer elemento.
func decodeOne(data []byte) (json.RawMessage, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, false, nil
	}
	if data[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, false, fmt.Errorf("decodificar objeto: %w", err)
		}
		_, hasContent := wrapper["content"]
		_, hasData := wrapper["data"]
		if !hasContent && !hasData {
			return data, true, nil
		}
	}
	items, err := decodeList(data)
	if err != nil {
		return nil, false, err
	}
	if len(items) == 0 {
		return nil, false, nil
	}
	return items[0], true, nil
}

// flexID id que el remoto envía a veces como número y a veces como string.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id inválido %s: %w", b, err)
	}
	*f = flexID(n.String())
	return nil
}

// MarshalJSON envía como número solo los enteros en forma canónica ("42", "-3").
// "007" o "+5" no son números JSON válidos y salen como string.
func (f flexID) MarshalJSON() ([]byte, error) {
	if f == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(string(f), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(f) {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// wireTime acepta RFC3339, fecha-hora sin zona y fecha sola.
type wireTime struct{ time.Time }

func (w *wireTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || strings.TrimSpace(s) == "" {
		w.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			w.Time = t
			return nil
		}
	}
	return fmt.Errorf("fecha inválida %q", s)
}

func (w wireTime) MarshalJSON() ([]byte, error) {
	if w.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(w.Format(time.RFC3339))
}

func timePtr(w *wireTime) *time.Time {
	if w == nil || w.IsZero() {
		return nil
	}
	t := w.Time
	return &t
}

func toWireTime(t *time.Time) *wireTime {
	if t == nil {
		return nil
	}
	return &wireTime{*t}
}

// fields objeto JSON como mapa. Permite leer los campos conocidos y reenviar intactos los demás.
type fields map[string]json.RawMessage

func decodeFields(data []byte) (fields, error) {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decodificar objeto: %w", err)
	}
	if f == nil {
		f = fields{}
	}
	return f, nil
}

// take decodifica key en v y lo quita del mapa. Un campo ausente o null deja v sin cambios.
// Los ids (*flexID) se dejan en el mapa: put los reenvía con el mismo tipo JSON con que llegaron.
func (f fields) take(key string, v any) error {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	if _, isID := v.(*flexID); !isID {
		delete(f, key)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("campo %s: %w", key, err)
	}
	return nil
}

// put codifica v en key. Valores nil se omiten.
func (f fields) put(key string, v any) error {
	if id, ok := v.(flexID); ok {
		return f.putID(key, id)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("campo %s: %w", key, err)
	}
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}
	f[key] = raw
	return nil
}

// putID conserva el valor recibido si representa el mismo id ("42" sigue siendo string);
// si cambió o no existía, lo codifica con flexID.MarshalJSON. Un id vacío quita el campo.
func (f fields) putID(key string, id flexID) error {
	if id == "" {
		delete(f, key)
		return nil
	}
	if raw, ok := f[key]; ok {
		var prev flexID
		if err := json.Unmarshal(raw, &prev); err == nil && prev == id {
			return nil
		}
	}
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("campo %s: %w", key, err)
	}
	f[key] = raw
	return nil
}

func (f fields) extra() map[string]json.RawMessage {
	if len(f) == 0 {
		return nil
	}
	return map[string]json.RawMessage(f)
}

func fromExtra(extra map[string]json.RawMessage) fields {
	f := make(fields, len(extra)+8)
	for k, v := range extra {
		f[k] = v
	}
	return f
}
