// Package tlsroots builds the trust store used by the page to fetch scripts
// over HTTPS: system roots plus optional private CA certificates, for
// scripts hosted behind an internal CDN.
package tlsroots
