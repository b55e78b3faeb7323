// Package i18n renders user-facing failure messages in English or
// Simplified Chinese using golang.org/x/text message catalogs.
package i18n
