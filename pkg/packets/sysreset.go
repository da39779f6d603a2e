package packets

const (
	FamilySysReset byte = 'R'

	TypeSysReset byte = 'Q'
)

// SysReset asks the target to reset itself. It carries no fields.
type SysReset struct{}

func (p SysReset) Encode() []byte { return []byte{FamilySysReset, TypeSysReset} }

func DecodeSysReset(buf []byte) (SysReset, error) {
	if err := checkDiscriminator(buf, FamilySysReset, TypeSysReset); err != nil {
		return SysReset{}, err
	}
	return SysReset{}, nil
}
