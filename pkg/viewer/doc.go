// Package viewer provides a navigable view over an ordered image list,
// either the results of a finished job or the saved gallery. Navigation
// wraps at both ends when more than one image is present; deletion is
// only offered for the gallery, since job results are ephemeral until
// saved.
package viewer
