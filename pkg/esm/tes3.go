package esm

// Master names a file the plugin depends on, with the size recorded by the
// tool that saved it.
type Master struct {
	Name string
	Size uint64
}

// FileHeader is the TES3 record every plugin file opens with.
type FileHeader struct {
	Version     float32
	FileType    uint32
	Author      string
	Description string
	NumRecords  uint32
	Masters     []Master
}

const (
	authorFieldLen      = 32
	descriptionFieldLen = 256
)

// ReadFileHeader parses the subrecords of the current record as a file
// header. The caller has already framed the TES3 record via NextRecord.
func ReadFileHeader(r *Reader) (*FileHeader, error) {
	h := &FileHeader{}
	for r.HasMoreSubs() {
		tag, err := r.NextSub()
		if err != nil {
			return nil, err
		}
		switch tag {
		case SubHEDR:
			if h.Version, err = r.ReadFloat32(); err != nil {
				return nil, err
			}
			if h.FileType, err = r.ReadUint32(); err != nil {
				return nil, err
			}
			if h.Author, err = r.ReadFixedString(authorFieldLen); err != nil {
				return nil, err
			}
			if h.Description, err = r.ReadFixedString(descriptionFieldLen); err != nil {
				return nil, err
			}
			if h.NumRecords, err = r.ReadUint32(); err != nil {
				return nil, err
			}
		case SubMAST:
			name, err := r.ReadSubString()
			if err != nil {
				return nil, err
			}
			h.Masters = append(h.Masters, Master{Name: name})
		case SubDATA:
			if len(h.Masters) == 0 {
				return nil, r.Fail("master size without a preceding master name")
			}
			size, err := r.ReadUint64()
			if err != nil {
				return nil, err
			}
			h.Masters[len(h.Masters)-1].Size = size
		default:
			return nil, r.Fail("unknown subrecord " + tag.String() + " in file header")
		}
	}
	return h, nil
}

// Write emits the header as a complete TES3 record.
func (h *FileHeader) Write(w *Writer) error {
	w.StartRecord(RecTES3, 0)
	w.StartSub(SubHEDR)
	w.WriteFloat32(h.Version)
	w.WriteUint32(h.FileType)
	w.WriteFixedString(h.Author, authorFieldLen)
	w.WriteFixedString(h.Description, descriptionFieldLen)
	w.WriteUint32(h.NumRecords)
	for _, m := range h.Masters {
		w.WriteSubCString(SubMAST, m.Name)
		w.StartSub(SubDATA)
		w.WriteUint64(m.Size)
	}
	return w.EndRecord()
}
