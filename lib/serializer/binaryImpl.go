package serializer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer/discriminator"
)

const NameBinary = "binary"

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and size. Variants are written as numbered fields in
// protocol order and read back by the strict discriminator reader.
func NewBinarySerializer() ISerializerBehavior {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements ISerializerBehavior using a custom binary format
type binarySerializerImpl struct {
}

// Presence flags for collections
const (
	isAbsent  byte = 0
	isPresent byte = 1 << 0
)

// Wire types of variant fields
const (
	wireInt    byte = 1 // 8 bytes, big endian two's complement
	wireString byte = 2 // 4 bytes length + data
	wireBool   byte = 3 // 1 byte
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializerBehavior)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Name() string { return NameBinary }

func (b binarySerializerImpl) Serialize(v any) ([]byte, error) {
	w := &binaryWriter{}

	switch x := valueOf(v).(type) {
	case model.FlatRecord:
		w.buf = make([]byte, 0, 1+flatRecordSize(x))
		w.byte(byte(ShapeFlatRecord))
		w.flatRecord(x)
	case []model.FlatRecord:
		size := 1 + 1 + 4
		for i := range x {
			size += flatRecordSize(x[i])
		}
		w.buf = make([]byte, 0, size)
		w.byte(byte(ShapeFlatRecords))
		if !w.presence(x == nil) {
			break
		}
		w.uint32(uint32(len(x)))
		for i := range x {
			w.flatRecord(x[i])
		}
	case model.Container:
		w.byte(byte(ShapeContainer))
		if err := w.container(x); err != nil {
			return nil, err
		}
	case []model.Container:
		w.byte(byte(ShapeContainers))
		if !w.presence(x == nil) {
			break
		}
		w.uint32(uint32(len(x)))
		for i := range x {
			if err := w.container(x[i]); err != nil {
				return nil, fmt.Errorf("container %d: %w", i, err)
			}
		}
	default:
		return nil, errUnsupportedShape(v)
	}

	return w.buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, out any) error {
	// Check minimum size (shape)
	if len(data) < 1 {
		return fmt.Errorf("data too short for shape header")
	}

	r := &binaryReader{data: data, pos: 1}
	shape := Shape(data[0])

	switch o := out.(type) {
	case *model.FlatRecord:
		if err := r.expect(shape, ShapeFlatRecord); err != nil {
			return err
		}
		rec, err := r.flatRecord()
		if err != nil {
			return err
		}
		*o = rec
	case *[]model.FlatRecord:
		if err := r.expect(shape, ShapeFlatRecords); err != nil {
			return err
		}
		n, present, err := r.collection("records")
		if err != nil {
			return err
		}
		*o = nil
		if !present {
			break
		}
		list := make([]model.FlatRecord, 0, min(n, r.remaining()))
		for i := 0; i < n; i++ {
			rec, err := r.flatRecord()
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			list = append(list, rec)
		}
		*o = list
	case *model.Container:
		if err := r.expect(shape, ShapeContainer); err != nil {
			return err
		}
		c, err := r.container()
		if err != nil {
			return err
		}
		*o = c
	case *[]model.Container:
		if err := r.expect(shape, ShapeContainers); err != nil {
			return err
		}
		n, present, err := r.collection("containers")
		if err != nil {
			return err
		}
		*o = nil
		if !present {
			break
		}
		list := make([]model.Container, 0, min(n, r.remaining()))
		for i := 0; i < n; i++ {
			c, err := r.container()
			if err != nil {
				return fmt.Errorf("container %d: %w", i, err)
			}
			list = append(list, c)
		}
		*o = list
	default:
		return errUnsupportedShape(out)
	}

	if r.remaining() != 0 {
		return fmt.Errorf("%d trailing bytes after %s", r.remaining(), shape)
	}
	return nil
}

func (b binarySerializerImpl) SupportsFeature(f Feature) bool {
	return f&(FeatureAbsentCollections|FeatureDiscriminator) != 0
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// flatRecordSize calculates the size needed for one record
func flatRecordSize(r model.FlatRecord) int {
	return 4 + 4 + len(r.Name) // int32 id + 4 bytes length + name
}

// binaryWriter appends the encoded form of the model to buf
type binaryWriter struct {
	buf []byte
}

func (w *binaryWriter) byte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *binaryWriter) uint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *binaryWriter) string(s string) {
	w.uint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// presence writes the presence flag of a collection and reports whether
// its elements follow
func (w *binaryWriter) presence(absent bool) bool {
	if absent {
		w.byte(isAbsent)
		return false
	}
	w.byte(isPresent)
	return true
}

func (w *binaryWriter) flatRecord(r model.FlatRecord) {
	w.uint32(uint32(r.ID))
	w.string(r.Name)
}

func (w *binaryWriter) container(c model.Container) error {
	w.string(c.Name)
	if !w.presence(c.Groups == nil) {
		return nil
	}
	w.uint32(uint32(len(c.Groups)))
	for i, g := range c.Groups {
		if !w.presence(g.Items == nil) {
			continue
		}
		w.uint32(uint32(len(g.Items)))
		for j, v := range g.Items {
			if err := w.variant(v); err != nil {
				return fmt.Errorf("group %d item %d: %w", i, j, err)
			}
		}
	}
	return nil
}

// variant writes a field count followed by the fields in protocol order
func (w *binaryWriter) variant(v model.Variant) error {
	v, err := checkedVariant(v)
	if err != nil {
		return err
	}
	countPos := len(w.buf)
	w.byte(0)
	fw := &binaryFieldWriter{w: w}
	if err := discriminator.Encode(fw, v); err != nil {
		return err
	}
	w.buf[countPos] = fw.fields
	return nil
}

// binaryFieldWriter writes numbered, typed fields
type binaryFieldWriter struct {
	w      *binaryWriter
	fields byte
}

func (f *binaryFieldWriter) header(name string, wireType byte) error {
	number, ok := discriminator.FieldNumber(name)
	if !ok {
		return fmt.Errorf("no field number for %s", name)
	}
	f.fields++
	f.w.byte(byte(number))
	f.w.byte(wireType)
	return nil
}

func (f *binaryFieldWriter) WriteInt(name string, v int64) error {
	if err := f.header(name, wireInt); err != nil {
		return err
	}
	f.w.buf = binary.BigEndian.AppendUint64(f.w.buf, uint64(v))
	return nil
}

func (f *binaryFieldWriter) WriteString(name string, v string) error {
	if err := f.header(name, wireString); err != nil {
		return err
	}
	f.w.string(v)
	return nil
}

func (f *binaryFieldWriter) WriteBool(name string, v bool) error {
	if err := f.header(name, wireBool); err != nil {
		return err
	}
	if v {
		f.w.byte(1)
	} else {
		f.w.byte(0)
	}
	return nil
}

// binaryReader reads the encoded form of the model from data
type binaryReader struct {
	data []byte
	pos  int
}

func (r *binaryReader) remaining() int {
	return len(r.data) - r.pos
}

func (r *binaryReader) expect(got, want Shape) error {
	if got != want {
		return fmt.Errorf("data holds shape %s, want %s", got, want)
	}
	return nil
}

func (r *binaryReader) byte(what string) (byte, error) {
	if r.pos+1 > len(r.data) {
		return 0, fmt.Errorf("data too short for %s", what)
	}
	b := r.data[r.pos]
	r.pos += 1
	return b, nil
}

func (r *binaryReader) uint32(what string) (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("data too short for %s", what)
	}
	v := binary.BigEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *binaryReader) uint64(what string) (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("data too short for %s", what)
	}
	v := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

func (r *binaryReader) string(what string) (string, error) {
	n, err := r.uint32(what + " length")
	if err != nil {
		return "", err
	}
	if uint64(r.pos)+uint64(n) > uint64(len(r.data)) {
		return "", fmt.Errorf("data too short for %s data", what)
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// collection reads the presence flag and, if present, the element count
func (r *binaryReader) collection(what string) (int, bool, error) {
	flag, err := r.byte(what + " flag")
	if err != nil {
		return 0, false, err
	}
	switch flag {
	case isAbsent:
		return 0, false, nil
	case isPresent:
	default:
		return 0, false, fmt.Errorf("invalid %s flag %d", what, flag)
	}
	n, err := r.uint32(what + " count")
	if err != nil {
		return 0, false, err
	}
	return int(n), true, nil
}

func (r *binaryReader) flatRecord() (model.FlatRecord, error) {
	id, err := r.uint32("record id")
	if err != nil {
		return model.FlatRecord{}, err
	}
	name, err := r.string("record name")
	if err != nil {
		return model.FlatRecord{}, err
	}
	return model.FlatRecord{ID: int32(id), Name: name}, nil
}

func (r *binaryReader) container() (model.Container, error) {
	name, err := r.string("container name")
	if err != nil {
		return model.Container{}, err
	}
	c := model.Container{Name: name}

	n, present, err := r.collection("groups")
	if err != nil || !present {
		return c, err
	}
	// every group takes at least its flag byte
	if n > r.remaining() {
		return model.Container{}, fmt.Errorf("data too short for %d groups", n)
	}
	c.Groups = make([]model.Group, n)
	for i := range c.Groups {
		m, present, err := r.collection("items")
		if err != nil {
			return model.Container{}, fmt.Errorf("group %d: %w", i, err)
		}
		if !present {
			continue
		}
		if m > r.remaining() {
			return model.Container{}, fmt.Errorf("group %d: data too short for %d items", i, m)
		}
		items := make([]model.Variant, m)
		for j := range items {
			v, err := discriminator.DecodeStrict(&binaryFieldReader{r: r})
			if err != nil {
				return model.Container{}, fmt.Errorf("group %d item %d: %w", i, j, err)
			}
			items[j] = v
		}
		c.Groups[i].Items = items
	}
	return c, nil
}

// binaryFieldReader reads the fields of one variant written by binaryFieldWriter
type binaryFieldReader struct {
	r        *binaryReader
	started  bool
	left     byte
	wireType byte
}

var errWireType = errors.New("wire type mismatch")

func (f *binaryFieldReader) Next() (string, bool, error) {
	if !f.started {
		count, err := f.r.byte("field count")
		if err != nil {
			return "", false, err
		}
		f.started = true
		f.left = count
	}
	if f.left == 0 {
		return "", false, nil
	}
	f.left--

	number, err := f.r.byte("field number")
	if err != nil {
		return "", false, err
	}
	f.wireType, err = f.r.byte("wire type")
	if err != nil {
		return "", false, err
	}
	name, ok := discriminator.FieldName(int(number))
	if !ok {
		// unknown slots are skipped by the reader through their wire type
		name = fmt.Sprintf("#%d", number)
	}
	return name, true, nil
}

func (f *binaryFieldReader) ReadInt() (int64, error) {
	if f.wireType != wireInt {
		return 0, errWireType
	}
	v, err := f.r.uint64("int field")
	return int64(v), err
}

func (f *binaryFieldReader) ReadString() (string, error) {
	if f.wireType != wireString {
		return "", errWireType
	}
	return f.r.string("string field")
}

func (f *binaryFieldReader) ReadBool() (bool, error) {
	if f.wireType != wireBool {
		return false, errWireType
	}
	b, err := f.r.byte("bool field")
	return b != 0, err
}

func (f *binaryFieldReader) Skip() error {
	var err error
	switch f.wireType {
	case wireInt:
		_, err = f.r.uint64("int field")
	case wireString:
		_, err = f.r.string("string field")
	case wireBool:
		_, err = f.r.byte("bool field")
	default:
		err = fmt.Errorf("unknown wire type %d", f.wireType)
	}
	return err
}
