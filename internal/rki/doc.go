// Package rki recovers the IPEK delivered by a remote key injection response:
// the RSA-OAEP wrapped TMK is decrypted with the host private key, and the
// resulting KBPK unwraps the TR-31 key block carrying the IPEK.
package rki
