package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer/discriminator"
	"strconv"
)

const NameJSON = "json"

// NewJSONSerializer creates a new serializer using json encoding.
// Variants go through the discriminator protocol with a strict, streaming
// reader: the discriminator must be the first field of every variant object.
func NewJSONSerializer() ISerializerBehavior {
	return &jsonSerializerImpl{
		codec: reflectCodec[jsonVariant, jsonVariant]{
			marshal:   json.Marshal,
			unmarshal: json.Unmarshal,
			wrap:      wrapJSONVariant,
			unwrap:    func(v jsonVariant) (model.Variant, error) { return checkedVariant(v.v) },
		},
	}
}

// jsonSerializerImpl implements the ISerializerBehavior interface using json encoding
type jsonSerializerImpl struct {
	codec reflectCodec[jsonVariant, jsonVariant]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializerBehavior)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Name() string { return NameJSON }

func (j jsonSerializerImpl) Serialize(v any) ([]byte, error) {
	if err := checkText(v, utf8Text); err != nil {
		return nil, err
	}
	return j.codec.serialize(v)
}

func (j jsonSerializerImpl) Deserialize(data []byte, out any) error {
	return j.codec.deserialize(data, out)
}

func (j jsonSerializerImpl) SupportsFeature(f Feature) bool {
	return f&(FeatureAbsentCollections|FeatureDiscriminator|FeatureHumanReadable) != 0
}

// --------------------------------------------------------------------------
// Variant converter
// --------------------------------------------------------------------------

// jsonVariant carries one variant through encoding/json
type jsonVariant struct {
	v model.Variant
}

func wrapJSONVariant(v model.Variant) (jsonVariant, error) {
	v, err := checkedVariant(v)
	return jsonVariant{v: v}, err
}

func (j jsonVariant) MarshalJSON() ([]byte, error) {
	w := &jsonFieldWriter{}
	w.buf.WriteByte('{')
	if err := discriminator.Encode(w, j.v); err != nil {
		return nil, err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}

func (j *jsonVariant) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return discriminator.NewFormatError("", discriminator.ErrMalformed, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return discriminator.NewFormatError("", discriminator.ErrMalformed, fmt.Errorf("expected object, got %v", tok))
	}

	v, err := discriminator.DecodeStrict(&jsonFieldReader{dec: dec})
	if err != nil {
		return err
	}
	j.v = v
	return nil
}

// jsonFieldWriter writes "name":value pairs separated by commas
type jsonFieldWriter struct {
	buf    bytes.Buffer
	fields int
}

func (w *jsonFieldWriter) key(name string) {
	if w.fields > 0 {
		w.buf.WriteByte(',')
	}
	w.fields++
	w.buf.WriteByte('"')
	w.buf.WriteString(name) // wire names need no escaping
	w.buf.WriteString(`":`)
}

func (w *jsonFieldWriter) WriteInt(name string, v int64) error {
	w.key(name)
	w.buf.WriteString(strconv.FormatInt(v, 10))
	return nil
}

func (w *jsonFieldWriter) WriteString(name string, v string) error {
	quoted, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.key(name)
	w.buf.Write(quoted)
	return nil
}

func (w *jsonFieldWriter) WriteBool(name string, v bool) error {
	w.key(name)
	if v {
		w.buf.WriteString("true")
	} else {
		w.buf.WriteString("false")
	}
	return nil
}

// jsonFieldReader walks an opened json object token by token
type jsonFieldReader struct {
	dec *json.Decoder
}

func (r *jsonFieldReader) Next() (string, bool, error) {
	if !r.dec.More() {
		tok, err := r.dec.Token()
		if err != nil {
			return "", false, err
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '}' {
			return "", false, fmt.Errorf("expected end of object, got %v", tok)
		}
		return "", false, nil
	}
	tok, err := r.dec.Token()
	if err != nil {
		return "", false, err
	}
	name, ok := tok.(string)
	if !ok {
		return "", false, fmt.Errorf("expected field name, got %v", tok)
	}
	return name, true, nil
}

func (r *jsonFieldReader) ReadInt() (int64, error) {
	tok, err := r.dec.Token()
	if err != nil {
		return 0, err
	}
	n, ok := tok.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", tok)
	}
	return n.Int64()
}

func (r *jsonFieldReader) ReadString() (string, error) {
	tok, err := r.dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", tok)
	}
	return s, nil
}

func (r *jsonFieldReader) ReadBool() (bool, error) {
	tok, err := r.dec.Token()
	if err != nil {
		return false, err
	}
	b, ok := tok.(bool)
	if !ok {
		return false, fmt.Errorf("expected boolean, got %T", tok)
	}
	return b, nil
}

func (r *jsonFieldReader) Skip() error {
	var raw json.RawMessage
	return r.dec.Decode(&raw)
}
