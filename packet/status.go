package packet

import (
	"io"

	jsoniter "github.com/json-iterator/go"
)

// StatusConfig holds what the status response advertises.
type StatusConfig struct {
	MOTD          string
	MaxPlayers    int
	OnlinePlayers int
}

type Status struct {
	Version     StatusVersion     `json:"version"`
	Players     StatusPlayers     `json:"players"`
	Description StatusDescription `json:"description"`
}

type StatusVersion struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

type StatusPlayers struct {
	Max    int            `json:"max"`
	Online int            `json:"online"`
	Sample []PlayerSample `json:"sample"`
}

type PlayerSample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type StatusDescription struct {
	Text string `json:"text"`
}

// NewStatus reflects the client's protocol back so that any client sees
// a compatible server. Negative or unknown versions are replaced by
// CanonicalProtocol.
func NewStatus(protocol int32, cfg StatusConfig) Status {
	if protocol < 0 || ModernVersionName(protocol) == UnknownVersion {
		protocol = CanonicalProtocol
	}

	return Status{
		Version: StatusVersion{
			Name:     ModernVersionName(protocol),
			Protocol: protocol,
		},
		Players: StatusPlayers{
			Max:    cfg.MaxPlayers,
			Online: cfg.OnlinePlayers,
			Sample: []PlayerSample{},
		},
		Description: StatusDescription{Text: cfg.MOTD},
	}
}

type StatusRequest struct{}

func (p StatusRequest) ID() int32 {
	return 0
}

func (p StatusRequest) Encode(w io.Writer) error {
	return WriteVarInt(w, p.ID())
}

func (p *StatusRequest) Decode(r Reader) error {
	return nil
}

type StatusResponse struct {
	Response string // JSON
}

// maxStatusLen is the protocol's limit for the status JSON string.
const maxStatusLen = 32767

func NewStatusResponse(protocol int32, cfg StatusConfig) (StatusResponse, error) {
	b, err := jsoniter.Marshal(NewStatus(protocol, cfg))
	if err != nil {
		return StatusResponse{}, err
	}
	return StatusResponse{Response: string(b)}, nil
}

func (p StatusResponse) ID() int32 {
	return 0
}

func (p StatusResponse) Encode(w io.Writer) (err error) {
	if err = WriteVarInt(w, p.ID()); err != nil {
		return
	}
	return WriteString(w, p.Response)
}

func (p *StatusResponse) Decode(r Reader) (err error) {
	p.Response, err = ReadStringMax(r, maxStatusLen)
	return
}

// Status unmarshals the JSON payload.
func (p StatusResponse) Status() (s Status, err error) {
	err = jsoniter.UnmarshalFromString(p.Response, &s)
	return
}

type Ping struct {
	Payload int64
}

func (p Ping) ID() int32 {
	return 1
}

func (p Ping) Encode(w io.Writer) (err error) {
	if err = WriteVarInt(w, p.ID()); err != nil {
		return
	}
	return WriteLong(w, p.Payload)
}

func (p *Ping) Decode(r Reader) (err error) {
	p.Payload, err = ReadLong(r)
	return
}

// Pong echoes a Ping payload; it encodes to the same eight bytes that
// were received.
type Pong struct {
	Payload int64
}

func (p Pong) ID() int32 {
	return 1
}

func (p Pong) Encode(w io.Writer) (err error) {
	if err = WriteVarInt(w, p.ID()); err != nil {
		return
	}
	return WriteLong(w, p.Payload)
}

func (p *Pong) Decode(r Reader) (err error) {
	p.Payload, err = ReadLong(r)
	return
}
