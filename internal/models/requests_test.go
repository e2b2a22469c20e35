package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericStringAcceptsStringsAndNumbers(t *testing.T) {
	var req LicenseRequest
	require.NoError(t, json.Unmarshal([]byte(`{"licenseTermsId": 12, "mintingFee": "1000000000000000000000000"}`), &req))
	assert.Equal(t, NumericString("12"), req.LicenseTermsID)
	assert.Equal(t, "1000000000000000000000000", req.MintingFee.String())

	var big DerivativeRequest
	require.NoError(t, json.Unmarshal([]byte(`{"licenseTermsIds": [123456789012345678901234567890, "7"], "maxMintingFee": null}`), &big))
	assert.Equal(t, []NumericString{"123456789012345678901234567890", "7"}, big.LicenseTermsIDs)
	assert.Empty(t, big.MaxMintingFee)

	assert.Error(t, json.Unmarshal([]byte(`{"licenseTermsId": true}`), &req))
}

func TestSharesBalanced(t *testing.T) {
	m := IPMetadata{Creators: []Creator{{ContributionPercent: 33.33}, {ContributionPercent: 33.33}, {ContributionPercent: 33.34}}}
	assert.True(t, m.SharesBalanced())
	assert.InDelta(t, 100, m.ContributionTotal(), 1e-9)

	m.Creators[2].ContributionPercent = 33.32
	assert.False(t, m.SharesBalanced())
}

func TestSignerAddress(t *testing.T) {
	addr := "0x1111111111111111111111111111111111111111"
	for _, r := range []interface{ SignerAddress() string }{
		&RegisterRequest{UserAddress: addr},
		&DerivativeRequest{UserAddress: addr},
		&LicenseRequest{UserAddress: addr},
		&RoyaltyRequest{UserAddress: addr},
		&CollectionRequest{UserAddress: addr},
		&DisputeRequest{UserAddress: addr},
		&CLIMintRequest{UserAddress: addr},
	} {
		assert.Equal(t, addr, r.SignerAddress())
	}
}
