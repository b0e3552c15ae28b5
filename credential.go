package custody

// Authority is something that can sign on behalf of an address. Every
// transfer out of an account must be authorized by an Authority for the
// account owner.
type Authority interface {
	Authorizes(Address) bool
}

// SignedBy is an Authority for a single identity whose transaction signature
// was already verified by the host.
type SignedBy Address

var _ Authority = SignedBy{}

// Authorizes returns true only for the signer's own address.
func (s SignedBy) Authorizes(a Address) bool {
	return Address(s) == a
}

func (s SignedBy) String() string {
	return Address(s).String()
}

// AuthorityCredential proves that the program can sign for a derived address.
// It carries the exact seed chain and the bump that were recorded when the
// address was first derived. It is not a secret: anybody can build one, but
// only the program that owns ProgramID is trusted by the ledger to present it.
type AuthorityCredential struct {
	ProgramID Address
	Seeds     [][]byte
	Bump      uint8
}

var _ Authority = AuthorityCredential{}

// NewCredential builds a credential for an address derived with Derive.
func NewCredential(programID Address, bump uint8, tag string, seeds ...[]byte) AuthorityCredential {
	all := make([][]byte, 0, len(seeds)+1)
	all = append(all, []byte(tag))
	all = append(all, seeds...)
	return AuthorityCredential{ProgramID: programID, Seeds: all, Bump: bump}
}

// Address re-derives the address this credential signs for.
func (c AuthorityCredential) Address() (Address, error) {
	seeds := make([][]byte, 0, len(c.Seeds)+1)
	seeds = append(seeds, c.Seeds...)
	seeds = append(seeds, []byte{c.Bump})
	return CreateProgramAddress(c.ProgramID, seeds...)
}

// Authorizes returns true if the credential re-derives exactly to given
// address.
func (c AuthorityCredential) Authorizes(a Address) bool {
	got, err := c.Address()
	if err != nil {
		return false
	}
	return got == a
}

// Authorities is an Authority that authorizes an address if any of its
// elements does. It lets an instruction combine a user signature with a
// program credential, for example when the user pays for an account the
// program creates at a derived address.
type Authorities []Authority

var _ Authority = Authorities{}

func (as Authorities) Authorizes(a Address) bool {
	for _, auth := range as {
		if auth != nil && auth.Authorizes(a) {
			return true
		}
	}
	return false
}
