// Package extract turns uploaded files into plain text for classification.
//
// Each format lives in its own subpackage; Registry picks one by MIME type.
package extract
