// Package metainfo reads and writes BitTorrent metainfo (.torrent) files on
// top of the bencode value model.
//
// The info hash is computed over the exact bytes of the "info" dictionary as
// they appear in the input, so torrents produced by non-canonical encoders
// keep the hash their swarm knows them by.
package metainfo

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/unkn0wn-root/bencode"
)

// HashSize is the length of a SHA-1 piece or info hash.
const HashSize = sha1.Size

type File struct {
	Length uint64
	Path   []string
}

// DisplayPath joins the path components with '/'.
func (f File) DisplayPath() string { return strings.Join(f.Path, "/") }

type Info struct {
	Name        string
	PieceLength uint64
	Pieces      []byte
	// Length is set for single-file torrents, Files for multi-file ones.
	Length  uint64
	Files   []File
	Private bool
}

type Torrent struct {
	Announce     string
	AnnounceList [][]string
	Comment      string
	CreatedBy    string
	CreationDate int64 // unix seconds, 0 when absent
	Info         Info

	InfoHash  [HashSize]byte
	InfoBytes []byte
}

// Parse decodes data and validates the metainfo schema. opts, if given,
// controls how strictly the underlying bencode is parsed.
func Parse(data []byte, opts ...bencode.DecodeOptions) (*Torrent, error) {
	dec := decoder(opts)
	root, err := dec.Parse(data)
	if err != nil {
		return nil, err
	}
	d, ok := root.(*bencode.Dict)
	if !ok {
		return nil, ErrNotDict
	}
	t, err := fromDict(d)
	if err != nil {
		return nil, err
	}
	raw, err := rawInfo(dec, data)
	if err != nil {
		return nil, err
	}
	t.InfoBytes = raw
	t.InfoHash = sha1.Sum(raw)
	return t, nil
}

// FromValue validates an already decoded tree. Without the original bytes the
// info hash is taken over the canonical encoding of the info dictionary.
func FromValue(d *bencode.Dict) (*Torrent, error) {
	if d == nil {
		return nil, ErrNotDict
	}
	t, err := fromDict(d)
	if err != nil {
		return nil, err
	}
	info, _ := d.Get("info")
	t.InfoBytes = bencode.Encode(info)
	t.InfoHash = sha1.Sum(t.InfoBytes)
	return t, nil
}

func fromDict(d *bencode.Dict) (*Torrent, error) {
	f := fields{d: d}
	t := &Torrent{}
	var err error

	if t.Announce, err = f.text("announce", !d.Has("announce-list")); err != nil {
		return nil, err
	}
	tiers, err := f.list("announce-list", false)
	if err != nil {
		return nil, err
	}
	for i, tier := range tiers {
		path := fmt.Sprintf("announce-list[%d]", i)
		l, ok := tier.(bencode.List)
		if !ok {
			return nil, &FieldError{Field: path, Err: ErrFieldType}
		}
		urls, err := textList(l, path)
		if err != nil {
			return nil, err
		}
		t.AnnounceList = append(t.AnnounceList, urls)
	}
	if t.Comment, err = f.text("comment", false); err != nil {
		return nil, err
	}
	if t.CreatedBy, err = f.text("created by", false); err != nil {
		return nil, err
	}
	date, _, err := f.integer("creation date", false)
	if err != nil {
		return nil, err
	}
	if date > math.MaxInt64 {
		return nil, &FieldError{Field: "creation date", Err: ErrInvalidValue}
	}
	t.CreationDate = int64(date)

	infoDict, err := f.dict("info", true)
	if err != nil {
		return nil, err
	}
	if t.Info, err = parseInfo(infoDict); err != nil {
		return nil, err
	}
	return t, nil
}

func parseInfo(d *bencode.Dict) (Info, error) {
	f := fields{d: d, prefix: "info"}
	var info Info
	var err error

	if info.Name, err = f.text("name", true); err != nil {
		return info, err
	}
	if info.PieceLength, _, err = f.integer("piece length", true); err != nil {
		return info, err
	}
	if info.PieceLength == 0 {
		return info, &FieldError{Field: "info.piece length", Err: ErrInvalidValue}
	}
	if info.Pieces, err = f.bytes("pieces", true); err != nil {
		return info, err
	}
	if len(info.Pieces)%HashSize != 0 {
		return info, &FieldError{Field: "info.pieces", Err: ErrBadPieces}
	}
	private, _, err := f.integer("private", false)
	if err != nil {
		return info, err
	}
	info.Private = private == 1

	length, hasLength, err := f.integer("length", false)
	if err != nil {
		return info, err
	}
	files, err := f.list("files", false)
	if err != nil {
		return info, err
	}
	hasFiles := d.Has("files")
	if hasLength == hasFiles {
		return info, &FieldError{Field: "info", Err: ErrAmbiguousLayout}
	}
	if hasLength {
		info.Length = length
		return info, nil
	}

	info.Files = make([]File, 0, len(files))
	for i, e := range files {
		prefix := fmt.Sprintf("info.files[%d]", i)
		fd, ok := e.(*bencode.Dict)
		if !ok {
			return info, &FieldError{Field: prefix, Err: ErrFieldType}
		}
		ff := fields{d: fd, prefix: prefix}
		var file File
		if file.Length, _, err = ff.integer("length", true); err != nil {
			return info, err
		}
		parts, err := ff.list("path", true)
		if err != nil {
			return info, err
		}
		if len(parts) == 0 {
			return info, &FieldError{Field: prefix + ".path", Err: ErrInvalidValue}
		}
		if file.Path, err = textList(parts, prefix+".path"); err != nil {
			return info, err
		}
		info.Files = append(info.Files, file)
	}
	return info, nil
}

// RawInfo returns the exact bytes of the top-level "info" value. When the
// key repeats, the last occurrence wins, as it does in the lenient parser.
// opts, if given, bound the parse the same way they bound Parse.
func RawInfo(data []byte, opts ...bencode.DecodeOptions) ([]byte, error) {
	return rawInfo(decoder(opts), data)
}

func decoder(opts []bencode.DecodeOptions) *bencode.Decoder {
	var o bencode.DecodeOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return bencode.NewDecoder(o)
}

func rawInfo(dec *bencode.Decoder, data []byte) ([]byte, error) {
	if len(data) == 0 || data[0] != 'd' {
		return nil, ErrNotDict
	}
	var raw []byte
	pos := 1
	for {
		if pos >= len(data) {
			return nil, &bencode.SyntaxError{Offset: 0, Err: bencode.ErrMissingTerminator}
		}
		if data[pos] == 'e' {
			break
		}
		keyOff := pos
		key, n, err := dec.ParseKind(data[pos:], bencode.KindByteString)
		if err != nil {
			return nil, shift(err, pos)
		}
		pos += n
		if pos >= len(data) {
			return nil, &bencode.SyntaxError{Offset: keyOff, Err: bencode.ErrInvalidBencodeDictionary}
		}
		_, n, err = dec.ParseWithOffset(data[pos:])
		if err != nil {
			return nil, shift(err, pos)
		}
		if string(key.(bencode.ByteString)) == "info" {
			raw = data[pos : pos+n]
		}
		pos += n
	}
	if raw == nil {
		return nil, &FieldError{Field: "info", Err: ErrMissingField}
	}
	return raw, nil
}

// shift rebases a syntax error found in data[base:] onto data.
func shift(err error, base int) error {
	if se, ok := err.(*bencode.SyntaxError); ok {
		return &bencode.SyntaxError{Offset: se.Offset + base, Err: se.Err}
	}
	return err
}

// InfoHashHex is the lowercase hex form used in magnet links.
func (t *Torrent) InfoHashHex() string { return hex.EncodeToString(t.InfoHash[:]) }

func (t *Torrent) IsMultiFile() bool { return t.Info.Files != nil }

func (t *Torrent) TotalLength() uint64 {
	if !t.IsMultiFile() {
		return t.Info.Length
	}
	var n uint64
	for _, f := range t.Info.Files {
		n += f.Length
	}
	return n
}

// FileList returns the files as laid out on disk. A single-file torrent
// reports one file named after the torrent.
func (t *Torrent) FileList() []File {
	if t.IsMultiFile() {
		return t.Info.Files
	}
	return []File{{Length: t.Info.Length, Path: []string{t.Info.Name}}}
}

func (t *Torrent) NumPieces() int { return len(t.Info.Pieces) / HashSize }

func (t *Torrent) PieceHashes() [][HashSize]byte {
	out := make([][HashSize]byte, t.NumPieces())
	for i := range out {
		copy(out[i][:], t.Info.Pieces[i*HashSize:])
	}
	return out
}

// Value rebuilds the metainfo tree from the struct fields. Keys the parser
// did not model are not carried over.
func (t *Torrent) Value() *bencode.Dict {
	d := bencode.NewDict()
	if t.Announce != "" {
		d.Set("announce", bencode.ByteString(t.Announce))
	}
	if len(t.AnnounceList) > 0 {
		tiers := make(bencode.List, len(t.AnnounceList))
		for i, tier := range t.AnnounceList {
			l := make(bencode.List, len(tier))
			for j, u := range tier {
				l[j] = bencode.ByteString(u)
			}
			tiers[i] = l
		}
		d.Set("announce-list", tiers)
	}
	if t.Comment != "" {
		d.Set("comment", bencode.ByteString(t.Comment))
	}
	if t.CreatedBy != "" {
		d.Set("created by", bencode.ByteString(t.CreatedBy))
	}
	if t.CreationDate > 0 {
		d.Set("creation date", bencode.Integer(t.CreationDate))
	}
	d.Set("info", t.Info.Value())
	return d
}

func (i Info) Value() *bencode.Dict {
	d := bencode.NewDict().
		Set("name", bencode.ByteString(i.Name)).
		Set("piece length", bencode.Integer(i.PieceLength)).
		Set("pieces", bencode.ByteString(i.Pieces))
	if i.Private {
		d.Set("private", bencode.Integer(1))
	}
	if i.Files == nil {
		return d.Set("length", bencode.Integer(i.Length))
	}
	files := make(bencode.List, len(i.Files))
	for n, f := range i.Files {
		path := make(bencode.List, len(f.Path))
		for j, p := range f.Path {
			path[j] = bencode.ByteString(p)
		}
		files[n] = bencode.NewDict().
			Set("length", bencode.Integer(f.Length)).
			Set("path", path)
	}
	return d.Set("files", files)
}

// Encode returns the canonical encoding of Value.
func (t *Torrent) Encode() []byte { return bencode.Encode(t.Value()) }
