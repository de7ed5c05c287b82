package tr31

import (
	"fmt"
	"strconv"
)

// HeaderInfo holds the fields of the fixed 16-byte key block header.
// It is informational only; unwrap never depends on it.
type HeaderInfo struct {
	Version        Version
	Length         int    // bytes 1-4, declared total length.
	KeyUsage       string // bytes 5-6.
	Algorithm      byte   // byte 7.
	ModeOfUse      byte   // byte 8.
	KeyVersion     string // bytes 9-10.
	Exportability  byte   // byte 11.
	OptionalBlocks int    // bytes 12-13.
}

// Describe decodes the header of kb.
func (kb *KeyBlock) Describe() HeaderInfo {
	return describeHeader(kb.Header)
}

// Describe decodes the header of the unwrapped key block.
func (r *Result) Describe() HeaderInfo {
	return describeHeader(r.Header)
}

func describeHeader(h []byte) HeaderInfo {
	if len(h) < HeaderLength {
		return HeaderInfo{}
	}

	// Non-numeric length fields decode as -1.
	length, err := strconv.Atoi(string(h[1:5]))
	if err != nil {
		length = -1
	}
	optional, err := strconv.Atoi(string(h[12:14]))
	if err != nil {
		optional = -1
	}

	return HeaderInfo{
		Version:        Version(h[0]),
		Length:         length,
		KeyUsage:       string(h[5:7]),
		Algorithm:      h[7],
		ModeOfUse:      h[8],
		KeyVersion:     string(h[9:11]),
		Exportability:  h[11],
		OptionalBlocks: optional,
	}
}

// KeyUsageMeaning returns a description of the key usage code.
func (h HeaderInfo) KeyUsageMeaning() string {
	usage := map[string]string{
		"B0": "Base Derivation Key (BDK)",
		"B1": "DUKPT Initial Key (IPEK)",
		"B2": "Base Key Variant Key",
		"C0": "Card Verification Key",
		"D0": "Data Encryption Key (Generic)",
		"D1": "Asymmetric Key for Data Encryption",
		"E0": "EMV/Chip Issuer Master Key: Application Cryptograms",
		"E1": "EMV/Chip Issuer Master Key: Secure Messaging for Confidentiality",
		"E2": "EMV/Chip Issuer Master Key: Secure Messaging for Integrity",
		"E3": "EMV/Chip Issuer Master Key: Data Authentication Code",
		"E4": "EMV/Chip Issuer Master Key: Dynamic Numbers",
		"E5": "EMV/Chip Issuer Master Key: Card Personalization",
		"E6": "EMV/Chip Issuer Master Key: Other",
		"I0": "Initialization Vector",
		"K0": "Key Encryption or Wrapping Key",
		"K1": "TR-31 Key Block Protection Key",
		"K2": "TR-34 Asymmetric Key",
		"K3": "Asymmetric Key for Key Agreement/Key Wrapping",
		"M0": "ISO 16609 MAC algorithm 1 (using TDEA)",
		"M1": "ISO 9797-1 MAC Algorithm 1",
		"M2": "ISO 9797-1 MAC Algorithm 2",
		"M3": "ISO 9797-1 MAC Algorithm 3",
		"M4": "ISO 9797-1 MAC Algorithm 4",
		"M5": "ISO 9797-1:2011 MAC Algorithm 5",
		"M6": "ISO 9797-1:2011 MAC Algorithm 5/CMAC",
		"M7": "HMAC",
		"M8": "ISO 9797-1:2011 MAC Algorithm 6",
		"P0": "PIN Encryption Key",
		"S0": "Asymmetric Key Pair for Digital Signature",
		"S1": "Asymmetric Key Pair, CA Key",
		"S2": "Asymmetric Key Pair, Non-X9.24 Key",
		"V0": "PIN Verification, KPV, other algorithm",
		"V1": "PIN Verification, IBM 3624",
		"V2": "PIN Verification, VISA PVV",
		"V3": "PIN Verification, X9.132 algorithm 1",
		"V4": "PIN Verification, X9.132 algorithm 2",
	}
	if m, ok := usage[h.KeyUsage]; ok {
		return m
	}

	return "Unknown key usage"
}

// AlgorithmMeaning returns a description of the algorithm byte.
func (h HeaderInfo) AlgorithmMeaning() string {
	switch h.Algorithm {
	case 'A':
		return "AES"
	case 'D':
		return "DEA"
	case 'E':
		return "Elliptic curve"
	case 'H':
		return "HMAC"
	case 'R':
		return "RSA"
	case 'S':
		return "DSA"
	case 'T':
		return "Triple DEA"
	default:
		return "Unknown algorithm"
	}
}

// ModeOfUseMeaning returns a description of the mode of use byte.
func (h HeaderInfo) ModeOfUseMeaning() string {
	switch h.ModeOfUse {
	case 'B':
		return "Both encrypt and decrypt / wrap and unwrap"
	case 'C':
		return "MAC calculation (both generate and verify)"
	case 'D':
		return "Decrypt / unwrap only"
	case 'E':
		return "Encrypt / wrap only"
	case 'G':
		return "MAC generate only"
	case 'N':
		return "No special restrictions"
	case 'S':
		return "Signature only"
	case 'T':
		return "Both sign and decrypt"
	case 'V':
		return "MAC verify only"
	case 'X':
		return "Key derivation only"
	case 'Y':
		return "Key used to create key variants"
	default:
		return "Unknown mode of use"
	}
}

// KeyVersionMeaning returns a description of the key version field.
func (h HeaderInfo) KeyVersionMeaning() string {
	if h.KeyVersion == "00" {
		return "Key versioning not used"
	}
	if len(h.KeyVersion) == 2 && h.KeyVersion[0] == 'c' {
		return fmt.Sprintf("Key component %c", h.KeyVersion[1])
	}

	return fmt.Sprintf("Version %s", h.KeyVersion)
}

// ExportabilityMeaning returns a description of the exportability byte.
func (h HeaderInfo) ExportabilityMeaning() string {
	switch h.Exportability {
	case 'E':
		return "Exportable under a trusted key"
	case 'N':
		return "Non-exportable"
	case 'S':
		return "Sensitive, exportable under an untrusted key"
	default:
		return "Unknown exportability"
	}
}
