package field_params

const (
	RootLength         = 32 // RootLength defines the byte length of a Merkle root.
	BLSSignatureLength = 96 // BLSSignatureLength defines the byte length of a BLSSignature.
	BLSPubkeyLength    = 48 // BLSPubkeyLength defines the byte length of a BLSSignature.
	VersionLength      = 4  // VersionLength defines the byte length of a fork version number.
	DepositProofLength = 33 // DEPOSIT_CONTRACT_TREE_DEPTH + 1
)
