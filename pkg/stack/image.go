package stack

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecrassets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsssm"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

type imageKind int

const (
	imageFromAsset imageKind = iota + 1
	imageFromExport
	imageFromParameter
	imageFromString
)

// ImageRef is how a runtime stack learns which image to pull.
type ImageRef struct {
	kind  imageKind
	asset awsecrassets.DockerImageAsset
	value string
}

// ImageFromAsset passes the asset construct itself. Only valid within the asset's stage.
func ImageFromAsset(asset awsecrassets.DockerImageAsset) ImageRef {
	return ImageRef{kind: imageFromAsset, asset: asset}
}

// ImageFromExport imports a value exported by another stack in the same account and region.
func ImageFromExport(exportName string) ImageRef {
	return ImageRef{kind: imageFromExport, value: exportName}
}

// ImageFromParameter reads an SSM parameter at deploy time.
func ImageFromParameter(parameterName string) ImageRef {
	return ImageRef{kind: imageFromParameter, value: parameterName}
}

// ImageFromString hands over a literal image uri.
func ImageFromString(uri string) ImageRef {
	return ImageRef{kind: imageFromString, value: uri}
}

func (r ImageRef) Validate() error {
	switch r.kind {
	case imageFromAsset:
		if r.asset == nil {
			return fmt.Errorf("image asset is nil")
		}
	case imageFromExport, imageFromParameter, imageFromString:
		if r.value == "" {
			return fmt.Errorf("image %s is empty", r.String())
		}
	default:
		return fmt.Errorf("image reference is not set")
	}
	return nil
}

// Identifier renders the reference inside scope.
func (r ImageRef) Identifier(scope constructs.Construct) *string {
	switch r.kind {
	case imageFromAsset:
		return r.asset.ImageUri()
	case imageFromExport:
		return awscdk.Fn_ImportValue(jsii.String(r.value))
	case imageFromParameter:
		return awsssm.StringParameter_ValueForStringParameter(scope, jsii.String(r.value), nil)
	default:
		return jsii.String(r.value)
	}
}

func (r ImageRef) String() string {
	switch r.kind {
	case imageFromAsset:
		return "asset"
	case imageFromExport:
		return "export " + r.value
	case imageFromParameter:
		return "parameter " + r.value
	case imageFromString:
		return "uri " + r.value
	default:
		return "unset"
	}
}
