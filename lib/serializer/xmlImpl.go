package serializer

import (
	"encoding/xml"
	"fmt"
	"github.com/ValentinKolb/serbench/lib/model"
	"github.com/ValentinKolb/serbench/lib/serializer/discriminator"
	"strconv"
)

const NameXML = "xml"

// NewXMLSerializer creates a new serializer using xml encoding.
// Variants are elements whose children follow the discriminator protocol,
// collections are wrapped in an element so that absent and empty differ.
func NewXMLSerializer() ISerializerBehavior {
	return &xmlSerializerImpl{}
}

// xmlSerializerImpl implements the ISerializerBehavior interface using xml encoding
type xmlSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializerBehavior)
// --------------------------------------------------------------------------

func (x xmlSerializerImpl) Name() string { return NameXML }

func (x xmlSerializerImpl) Serialize(v any) ([]byte, error) {
	if err := checkText(v, xmlText); err != nil {
		return nil, err
	}
	switch val := valueOf(v).(type) {
	case model.FlatRecord:
		return xml.Marshal(toXMLRecord(val))
	case []model.FlatRecord:
		list := xmlRecordList{Absent: val == nil, Records: make([]xmlRecord, len(val))}
		for i := range val {
			list.Records[i] = toXMLRecord(val[i])
		}
		return xml.Marshal(list)
	case model.Container:
		c, err := toXMLContainer(val)
		if err != nil {
			return nil, err
		}
		return xml.Marshal(c)
	case []model.Container:
		list := xmlContainerList{Absent: val == nil, Containers: make([]xmlContainer, len(val))}
		for i := range val {
			c, err := toXMLContainer(val[i])
			if err != nil {
				return nil, fmt.Errorf("container %d: %w", i, err)
			}
			list.Containers[i] = c
		}
		return xml.Marshal(list)
	default:
		return nil, errUnsupportedShape(v)
	}
}

func (x xmlSerializerImpl) Deserialize(data []byte, out any) error {
	switch o := out.(type) {
	case *model.FlatRecord:
		var r xmlRecord
		if err := xml.Unmarshal(data, &r); err != nil {
			return err
		}
		*o = model.FlatRecord{ID: r.ID, Name: r.Name}
	case *[]model.FlatRecord:
		var list xmlRecordList
		if err := xml.Unmarshal(data, &list); err != nil {
			return err
		}
		*o = nil
		if !list.Absent {
			*o = make([]model.FlatRecord, len(list.Records))
			for i, r := range list.Records {
				(*o)[i] = model.FlatRecord{ID: r.ID, Name: r.Name}
			}
		}
	case *model.Container:
		var c xmlContainer
		if err := xml.Unmarshal(data, &c); err != nil {
			return err
		}
		*o = c.model()
	case *[]model.Container:
		var list xmlContainerList
		if err := xml.Unmarshal(data, &list); err != nil {
			return err
		}
		*o = nil
		if !list.Absent {
			*o = make([]model.Container, len(list.Containers))
			for i := range list.Containers {
				(*o)[i] = list.Containers[i].model()
			}
		}
	default:
		return errUnsupportedShape(out)
	}
	return nil
}

func (x xmlSerializerImpl) SupportsFeature(f Feature) bool {
	return f&(FeatureAbsentCollections|FeatureDiscriminator|FeatureHumanReadable) != 0
}

// --------------------------------------------------------------------------
// Wire types
// --------------------------------------------------------------------------

type xmlRecord struct {
	XMLName xml.Name `xml:"FlatRecord"`
	ID      int32    `xml:"ID"`
	Name    string   `xml:"Name"`
}

type xmlRecordList struct {
	XMLName xml.Name    `xml:"FlatRecords"`
	Absent  bool        `xml:"absent,attr,omitempty"`
	Records []xmlRecord `xml:"FlatRecord"`
}

type xmlContainer struct {
	XMLName xml.Name   `xml:"Container"`
	Name    string     `xml:"Name"`
	Groups  *xmlGroups `xml:"Groups"`
}

type xmlContainerList struct {
	XMLName    xml.Name       `xml:"Containers"`
	Absent     bool           `xml:"absent,attr,omitempty"`
	Containers []xmlContainer `xml:"Container"`
}

type xmlGroups struct {
	Groups []xmlGroup `xml:"Group"`
}

type xmlGroup struct {
	Items *xmlItems `xml:"Items"`
}

type xmlItems struct {
	Variants []xmlVariant `xml:"Variant"`
}

type xmlVariant struct {
	v model.Variant
}

func toXMLRecord(r model.FlatRecord) xmlRecord {
	return xmlRecord{ID: r.ID, Name: r.Name}
}

func toXMLContainer(c model.Container) (xmlContainer, error) {
	out := xmlContainer{Name: c.Name}
	if c.Groups == nil {
		return out, nil
	}
	out.Groups = &xmlGroups{Groups: make([]xmlGroup, len(c.Groups))}
	for i, g := range c.Groups {
		if g.Items == nil {
			continue
		}
		items := &xmlItems{Variants: make([]xmlVariant, len(g.Items))}
		for j, v := range g.Items {
			checked, err := checkedVariant(v)
			if err != nil {
				return out, fmt.Errorf("group %d item %d: %w", i, j, err)
			}
			items.Variants[j] = xmlVariant{v: checked}
		}
		out.Groups.Groups[i].Items = items
	}
	return out, nil
}

func (c xmlContainer) model() model.Container {
	out := model.Container{Name: c.Name}
	if c.Groups == nil {
		return out
	}
	out.Groups = make([]model.Group, len(c.Groups.Groups))
	for i, g := range c.Groups.Groups {
		if g.Items == nil {
			continue
		}
		items := make([]model.Variant, len(g.Items.Variants))
		for j, v := range g.Items.Variants {
			items[j] = v.v
		}
		out.Groups[i].Items = items
	}
	return out
}

// MarshalXML writes one child element per protocol field, discriminator first
func (x xmlVariant) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := discriminator.Encode(&xmlFieldWriter{enc: e}, x.v); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML collects the child elements by name and decodes them
func (x *xmlVariant) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	fields := discriminator.MapSource{}
	for {
		tok, err := d.Token()
		if err != nil {
			return discriminator.NewFormatError("", discriminator.ErrMalformed, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return discriminator.NewFormatError(t.Name.Local, discriminator.ErrMalformed, err)
			}
			fields[t.Name.Local] = value
		case xml.EndElement:
			v, err := discriminator.DecodeIndexed(fields)
			if err != nil {
				return err
			}
			x.v = v
			return nil
		}
	}
}

// xmlFieldWriter writes every field as a text element
type xmlFieldWriter struct {
	enc *xml.Encoder
}

func (w *xmlFieldWriter) write(name, value string) error {
	return w.enc.EncodeElement(value, xml.StartElement{Name: xml.Name{Local: name}})
}

func (w *xmlFieldWriter) WriteInt(name string, v int64) error {
	return w.write(name, strconv.FormatInt(v, 10))
}

func (w *xmlFieldWriter) WriteString(name string, v string) error {
	return w.write(name, v)
}

func (w *xmlFieldWriter) WriteBool(name string, v bool) error {
	return w.write(name, strconv.FormatBool(v))
}
