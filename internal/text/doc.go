// Package text holds the normalization and word-splitting rules shared by the
// tokenizer trainer and encoder.
package text
