package sml

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnexpectedEnd  = errors.New("unexpected end of sml data")
	ErrInvalidTL      = errors.New("invalid type-length field")
	ErrInvalidMessage = errors.New("invalid sml message")
)

// Message body tags.
const (
	TagOpenResponse    uint32 = 0x00000101
	TagCloseResponse   uint32 = 0x00000201
	TagGetListResponse uint32 = 0x00000701
)

type ValueKind uint8

const (
	KindAbsent ValueKind = iota
	KindOctets
	KindBool
	KindInt
	KindUint
	KindList
	kindEndOfMessage
)

// Value is one decoded TLV element.
type Value struct {
	Kind  ValueKind
	Bytes []byte
	Int   int64
	Uint  uint64
	Bool  bool
	List  []Value
}

// Integer returns signed and unsigned values as int64.
func (v Value) Integer() (int64, bool) {
	switch v.Kind {
	case KindInt:
		return v.Int, true
	case KindUint:
		if v.Uint > math.MaxInt64 {
			return 0, false
		}
		return int64(v.Uint), true
	}
	return 0, false
}

type File struct {
	Messages []Message
}

type Message struct {
	TransactionID []byte
	GroupNo       uint8
	AbortOnError  uint8
	Body          MessageBody
}

type MessageBody interface {
	Tag() uint32
}

type OpenResponse struct {
	ClientID  []byte
	ReqFileID []byte
	ServerID  []byte
}

func (OpenResponse) Tag() uint32 { return TagOpenResponse }

type CloseResponse struct{}

func (CloseResponse) Tag() uint32 { return TagCloseResponse }

type GetListResponse struct {
	ClientID []byte
	ServerID []byte
	ListName []byte
	ValList  []ListEntry
}

func (GetListResponse) Tag() uint32 { return TagGetListResponse }

// UnknownBody is any message body this package does not decode.
type UnknownBody struct {
	tag uint32
}

func (u UnknownBody) Tag() uint32 { return u.tag }

// ListEntry is a single reading identified by its OBIS code.
type ListEntry struct {
	ObjName []byte
	Unit    *uint8
	Scaler  *int8
	Value   Value
}

// ScaledInteger applies the scaler (power of ten) to an integer value.
func (e ListEntry) ScaledInteger() (int64, bool) {
	v, ok := e.Value.Integer()
	if !ok {
		return 0, false
	}
	if e.Scaler == nil || *e.Scaler == 0 {
		return v, true
	}
	return int64(math.Round(float64(v) * math.Pow10(int(*e.Scaler)))), true
}

// Parse decodes the messages of a single transport frame payload.
func Parse(frame []byte) (*File, error) {
	d := &decoder{data: frame}
	file := &File{}
	for d.pos < len(d.data) {
		if d.data[d.pos] == 0x00 {
			d.pos++
			continue
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		msg, err := messageFrom(v)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", len(file.Messages), err)
		}
		file.Messages = append(file.Messages, msg)
	}
	return file, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) value() (Value, error) {
	if d.pos >= len(d.data) {
		return Value{}, ErrUnexpectedEnd
	}
	first := d.data[d.pos]
	if first == 0x00 {
		d.pos++
		return Value{Kind: kindEndOfMessage}, nil
	}

	typ := (first >> 4) & 0x07
	length := int(first & 0x0f)
	tlLen := 1
	for more := first&0x80 != 0; more; {
		if d.pos+tlLen >= len(d.data) {
			return Value{}, ErrUnexpectedEnd
		}
		b := d.data[d.pos+tlLen]
		if (b>>4)&0x07 != 0 {
			return Value{}, fmt.Errorf("%w: continuation byte %02x", ErrInvalidTL, b)
		}
		length = length<<4 | int(b&0x0f)
		// no element or payload can be longer than the data itself
		if length > len(d.data) {
			return Value{}, fmt.Errorf("%w: length exceeds data", ErrInvalidTL)
		}
		more = b&0x80 != 0
		tlLen++
	}
	d.pos += tlLen

	if typ == 0x07 {
		// every element takes at least one byte
		if length > len(d.data)-d.pos {
			return Value{}, fmt.Errorf("%w: list of %d", ErrUnexpectedEnd, length)
		}
		items := make([]Value, 0, length)
		for i := 0; i < length; i++ {
			item, err := d.value()
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Value{Kind: KindList, List: items}, nil
	}

	n := length - tlLen
	if n < 0 {
		return Value{}, fmt.Errorf("%w: length %d", ErrInvalidTL, length)
	}
	if d.pos+n > len(d.data) {
		return Value{}, ErrUnexpectedEnd
	}
	raw := d.data[d.pos : d.pos+n]
	d.pos += n

	switch typ {
	case 0x00:
		if n == 0 {
			return Value{Kind: KindAbsent}, nil
		}
		return Value{Kind: KindOctets, Bytes: append([]byte(nil), raw...)}, nil
	case 0x04:
		if n != 1 {
			return Value{}, fmt.Errorf("%w: boolean of %d bytes", ErrInvalidTL, n)
		}
		return Value{Kind: KindBool, Bool: raw[0] != 0}, nil
	case 0x05, 0x06:
		if n < 1 || n > 8 {
			return Value{}, fmt.Errorf("%w: integer of %d bytes", ErrInvalidTL, n)
		}
		var u uint64
		for _, b := range raw {
			u = u<<8 | uint64(b)
		}
		if typ == 0x06 {
			return Value{Kind: KindUint, Uint: u}, nil
		}
		shift := 64 - 8*n
		return Value{Kind: KindInt, Int: int64(u<<shift) >> shift}, nil
	}
	return Value{}, fmt.Errorf("%w: type %x", ErrInvalidTL, typ)
}

func messageFrom(v Value) (Message, error) {
	if v.Kind != KindList || len(v.List) != 6 {
		return Message{}, fmt.Errorf("%w: expected list of 6", ErrInvalidMessage)
	}
	if v.List[5].Kind != kindEndOfMessage {
		return Message{}, fmt.Errorf("%w: missing end of message", ErrInvalidMessage)
	}
	body, err := bodyFrom(v.List[3])
	if err != nil {
		return Message{}, err
	}
	return Message{
		TransactionID: v.List[0].Bytes,
		GroupNo:       uint8(v.List[1].Uint),
		AbortOnError:  uint8(v.List[2].Uint),
		Body:          body,
	}, nil
}

func bodyFrom(v Value) (MessageBody, error) {
	if v.Kind != KindList || len(v.List) != 2 {
		return nil, fmt.Errorf("%w: message body", ErrInvalidMessage)
	}
	tag, ok := v.List[0].Integer()
	if !ok {
		return nil, fmt.Errorf("%w: message body tag", ErrInvalidMessage)
	}
	content := v.List[1]

	switch uint32(tag) {
	case TagOpenResponse:
		if content.Kind != KindList || len(content.List) != 6 {
			return nil, fmt.Errorf("%w: open response", ErrInvalidMessage)
		}
		return OpenResponse{
			ClientID:  content.List[1].Bytes,
			ReqFileID: content.List[2].Bytes,
			ServerID:  content.List[3].Bytes,
		}, nil
	case TagCloseResponse:
		return CloseResponse{}, nil
	case TagGetListResponse:
		return getListResponseFrom(content)
	}
	return UnknownBody{tag: uint32(tag)}, nil
}

func getListResponseFrom(v Value) (GetListResponse, error) {
	if v.Kind != KindList || len(v.List) != 7 {
		return GetListResponse{}, fmt.Errorf("%w: get list response", ErrInvalidMessage)
	}
	valList := v.List[4]
	if valList.Kind != KindList {
		return GetListResponse{}, fmt.Errorf("%w: value list", ErrInvalidMessage)
	}
	res := GetListResponse{
		ClientID: v.List[0].Bytes,
		ServerID: v.List[1].Bytes,
		ListName: v.List[2].Bytes,
		ValList:  make([]ListEntry, 0, len(valList.List)),
	}
	for i, e := range valList.List {
		if e.Kind != KindList || len(e.List) != 7 {
			return GetListResponse{}, fmt.Errorf("%w: list entry %d", ErrInvalidMessage, i)
		}
		entry := ListEntry{
			ObjName: e.List[0].Bytes,
			Value:   e.List[5],
		}
		if unit := e.List[3]; unit.Kind == KindUint {
			u := uint8(unit.Uint)
			entry.Unit = &u
		}
		if scaler := e.List[4]; scaler.Kind == KindInt {
			s := int8(scaler.Int)
			entry.Scaler = &s
		}
		res.ValList = append(res.ValList, entry)
	}
	return res, nil
}
