// Package server assembles the portbridge process: configuration, logging,
// metrics, the native port host, the handle registry, the messaging bridge,
// the script worker pool and the HTTP admin API.
package server
