package model

// QuorumCertificate proves that a supermajority of the committee voted for
// the referenced block in the given view and phase. SignerIndices is the
// canonical committee bit vector; SigData the aggregated BLS signature of
// the contributing partial signatures.
//
// A certificate at the fast-commit phase (Phase == PhaseFastCommit) is a
// FastQC: it carries a larger signer set and commits its block immediately.
type QuorumCertificate struct {
	View          uint64
	Phase         Phase
	BlockID       Identifier
	SignerIndices []byte
	SigData       []byte
}

// ID returns the identifier of the certificate's canonical encoding.
func (qc *QuorumCertificate) ID() Identifier {
	if qc == nil {
		return ZeroID
	}
	return MakeID(qc)
}

// IsFast reports whether the certificate lives in the fast-commit bucket.
func (qc *QuorumCertificate) IsFast() bool {
	return qc.Phase == PhaseFastCommit
}

// GenesisQC returns the sentinel certificate for the genesis block. It
// carries no signatures; verifiers accept it by identity. It is the initial
// value of both the locked and the newest QC.
func GenesisQC(genesis *Block) *QuorumCertificate {
	return &QuorumCertificate{
		View:          genesis.View,
		Phase:         PhasePropose,
		BlockID:       genesis.BlockID,
		SignerIndices: nil,
		SigData:       nil,
	}
}

// TimeoutCertificate proves that a supermajority of the committee abandoned
// the referenced view. It carries the newest QC known to any contributor, so
// that all replicas entering the next view adopt a common high QC.
type TimeoutCertificate struct {
	View          uint64
	NewestQC      *QuorumCertificate
	SignerIndices []byte
	SigData       []byte
}

// ID returns the identifier of the certificate's canonical encoding.
func (tc *TimeoutCertificate) ID() Identifier {
	if tc == nil {
		return ZeroID
	}
	return MakeID(tc)
}

// Consecutive reports whether child's certified block extends parent's
// certified block directly while not regressing in view. Two consecutive QCs
// commit the parent block (the HotStuff-2 two-phase commit rule). The caller
// resolves the child block, since certificates reference blocks by hash only.
func Consecutive(parent *QuorumCertificate, child *QuorumCertificate, childBlock *Block) bool {
	if parent == nil || child == nil || childBlock == nil {
		return false
	}
	if childBlock.BlockID != child.BlockID {
		return false
	}
	return childBlock.ParentID == parent.BlockID && child.View >= parent.View
}
