// Package sensor works out the name a honeypot reports its captures
// under.
package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/host"
)

type Options struct {
	Name string // used as is when set
	AWS  bool   // query EC2 instance metadata
}

type Identity struct {
	Name     string `json:"name"`
	Hostname string `json:"hostname"`
	Platform string `json:"platform"`
	Kernel   string `json:"kernel"`

	InstanceID string `json:"instance_id,omitempty"`
	Region     string `json:"region,omitempty"`
}

// Identify gathers host details and picks a name: the configured one,
// else the EC2 Name tag, else the instance id, else the hostname. Lookup
// failures are logged and fall through to the next choice.
func Identify(ctx context.Context, opts Options) Identity {
	var id Identity

	if info, err := host.InfoWithContext(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to read host info")
	} else {
		id.Hostname = info.Hostname
		id.Platform = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
		id.Kernel = info.KernelVersion
	}

	var tag string
	if opts.AWS {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("failed to load AWS config")
		} else {
			newTags := func(region string) TagDescriber {
				return ec2.NewFromConfig(cfg, func(o *ec2.Options) { o.Region = region })
			}
			id.InstanceID, id.Region, tag, err = lookupEC2(ctx, imds.NewFromConfig(cfg), newTags)
			if err != nil {
				log.Warn().Err(err).Msg("failed to look up EC2 identity")
			}
		}
	}

	switch {
	case opts.Name != "":
		id.Name = opts.Name
	case tag != "":
		id.Name = tag
	case id.InstanceID != "":
		id.Name = id.InstanceID
	default:
		id.Name = id.Hostname
	}
	return id
}

type InstanceMetadata interface {
	GetInstanceIdentityDocument(ctx context.Context, params *imds.GetInstanceIdentityDocumentInput, optFns ...func(*imds.Options)) (*imds.GetInstanceIdentityDocumentOutput, error)
}

type TagDescriber interface {
	DescribeTags(ctx context.Context, params *ec2.DescribeTagsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeTagsOutput, error)
}

// lookupEC2 reads the instance identity document and then the instance's
// Name tag. A missing tag is not an error; a failed tag query still
// returns the instance id and region.
func lookupEC2(ctx context.Context, md InstanceMetadata, newTags func(region string) TagDescriber) (instanceID, region, name string, err error) {
	doc, err := md.GetInstanceIdentityDocument(ctx, &imds.GetInstanceIdentityDocumentInput{})
	if err != nil {
		return "", "", "", fmt.Errorf("instance identity: %w", err)
	}
	instanceID, region = doc.InstanceID, doc.Region

	out, err := newTags(region).DescribeTags(ctx, &ec2.DescribeTagsInput{
		Filters: []types.Filter{
			{Name: aws.String("resource-id"), Values: []string{instanceID}},
			{Name: aws.String("key"), Values: []string{"Name"}},
		},
	})
	if err != nil {
		return instanceID, region, "", fmt.Errorf("describe tags: %w", err)
	}

	for _, t := range out.Tags {
		if aws.ToString(t.Key) == "Name" {
			name = aws.ToString(t.Value)
			break
		}
	}
	return instanceID, region, name, nil
}
