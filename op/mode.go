package op

// AddressMode enum type. Selected by the leading token of an operand.
type AddressMode int

const (
	AddrDirect    AddressMode = iota // Rn: the register itself.
	AddrImmediate                    // =k: literal integer.
	AddrIndexed                      // [k, Rn]: address k + Rn.
	AddrIndirect                     // @Rn: the address held in Rn. Load only.
	AddrRelative                     // $Rn: byte address of the executing instruction + Rn.
)

func (am AddressMode) String() string {
	switch am {
	case AddrDirect:
		return "direct"
	case AddrImmediate:
		return "immediate"
	case AddrIndexed:
		return "indexed"
	case AddrIndirect:
		return "indirect"
	case AddrRelative:
		return "relative"
	default:
		return "unknown address mode"
	}
}
