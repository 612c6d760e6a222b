// Package server implements the secure-doc-share HTTP backend: ops users
// upload office documents, client users list them and redeem time-limited,
// single-use encrypted download links.
package server
