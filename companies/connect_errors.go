package companies

import "github.com/pkg/errors"

var (
	CompanyNotFoundErr = errors.New("company not found")
	NotAuthorizedErr   = errors.New("only an owner or admin may manage the storage connection")
	NotConnectedErr    = errors.New("company has no storage connection")
)
