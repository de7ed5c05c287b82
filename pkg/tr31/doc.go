// Package tr31 parses and unwraps TDES TR-31 key blocks of versions A, B and D.
//
// Version A protects the payload with variant keys (KBPK XOR 0x45 / 0x4D) and a
// 4-byte ISO 9797-1 CBC-MAC over the ciphertext. Versions B and D derive their
// keys from the KBPK with the TDES CMAC KDF and use the trailing 8-byte MAC as
// the CBC IV. Version B authenticates the decrypted payload with CMAC; the MAC
// of a version D block is not verified.
package tr31
