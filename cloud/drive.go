// Package cloud holds outbound integrations with storage providers.
package cloud

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/taxbyte/go-identity-server/companies"
)

// DriveProber verifies a Drive connection by asking the API who the token
// belongs to and how much quota is left.
type DriveProber struct{}

var _ companies.ConnectionProber = (*DriveProber)(nil)

func NewDriveProber() *DriveProber {
	return &DriveProber{}
}

func (p *DriveProber) Probe(ctx context.Context, accessToken string) (*companies.ProbeResult, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	service, err := drive.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, errors.Wrap(err, "[DriveProber.Probe] drive.NewService")
	}

	about, err := service.About.Get().Fields("user(emailAddress)", "storageQuota(usage,limit)").Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "[DriveProber.Probe] About.Get")
	}

	result := &companies.ProbeResult{}
	if about.User != nil {
		result.AccountEmail = about.User.EmailAddress
	}
	if about.StorageQuota != nil {
		result.QuotaUsed = about.StorageQuota.Usage
		result.QuotaLimit = about.StorageQuota.Limit
	}
	return result, nil
}
