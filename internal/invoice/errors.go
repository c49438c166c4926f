package invoice

import "errors"

// ErrIndexOutOfRange is returned by remove and move operations when the index
// does not address a current entry. It is the engine's only failure mode; all
// other operations are total over their input domain.
var ErrIndexOutOfRange = errors.New("index out of range")
