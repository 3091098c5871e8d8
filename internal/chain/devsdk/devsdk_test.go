package devsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"socialkyc/internal/chain"
	"socialkyc/internal/chain/ctype"
)

const serviceKeyURI = "did:kilt:service#encryption"

type DevSDKSuite struct {
	suite.Suite
	ctx       context.Context
	keyring   *Keyring
	service   KeyPair
	messenger *Messenger
	wallet    *Wallet
	ledger    *Ledger
}

func TestDevSDKSuite(t *testing.T) {
	suite.Run(t, new(DevSDKSuite))
}

func (s *DevSDKSuite) SetupTest() {
	s.ctx = context.Background()
	s.keyring = NewKeyring()

	var err error
	s.service, err = DeriveKeyPair("test-seed")
	s.Require().NoError(err)
	s.keyring.Register(serviceKeyURI, s.service.Public)
	s.messenger = NewMessenger(s.keyring, s.service, serviceKeyURI)

	s.wallet, err = NewWallet(s.keyring, "did:kilt:alice")
	s.Require().NoError(err)

	s.ledger = NewLedger("did:kilt:service", NewValidator(ctype.Known()))
}

func (s *DevSDKSuite) emailCredential(address string) chain.Credential {
	cred, err := s.wallet.BuildCredential(chain.Claim{
		CTypeHash: ctype.Email.Hash,
		Contents:  map[string]any{"Email": address},
	})
	s.Require().NoError(err)
	return cred
}

func (s *DevSDKSuite) TestDeriveKeyPairIsDeterministic() {
	again, err := DeriveKeyPair("test-seed")
	s.Require().NoError(err)
	s.Equal(s.service, again)

	other, err := DeriveKeyPair("other-seed")
	s.Require().NoError(err)
	s.NotEqual(s.service.Public, other.Public)
}

func (s *DevSDKSuite) TestResolveEncryptionKey() {
	key, err := s.keyring.ResolveEncryptionKey(s.ctx, s.wallet.KeyURI)
	s.Require().NoError(err)
	s.Equal(chain.DID("did:kilt:alice"), key.DID)

	_, err = s.keyring.ResolveEncryptionKey(s.ctx, "did:kilt:bob#encryption")
	s.ErrorIs(err, ErrUnknownKey)

	_, err = s.keyring.ResolveEncryptionKey(s.ctx, "did:kilt:bob")
	s.Error(err)
}

func (s *DevSDKSuite) TestChallengeRoundTrip() {
	ct, nonce, err := s.wallet.EncryptChallenge("challenge-123", s.service.Public)
	s.Require().NoError(err)

	sender, err := s.keyring.ResolveEncryptionKey(s.ctx, s.wallet.KeyURI)
	s.Require().NoError(err)

	got, err := s.messenger.DecryptChallenge(s.ctx, sender, ct, nonce)
	s.Require().NoError(err)
	s.Equal("challenge-123", got)

	_, err = s.messenger.DecryptChallenge(s.ctx, sender, ct, strings.Repeat("00", 24))
	s.Error(err, "wrong nonce must not decrypt")
}

func (s *DevSDKSuite) TestWalletToServiceMessage() {
	body, err := chain.NewBody(chain.BodyRejectTerms, map[string]any{})
	s.Require().NoError(err)
	env, err := s.wallet.Seal(body, serviceKeyURI, s.service.Public)
	s.Require().NoError(err)

	msg, err := s.messenger.Decrypt(s.ctx, *env)
	s.Require().NoError(err)
	s.Equal(chain.BodyRejectTerms, msg.Body.Type)
	s.Equal(chain.DID("did:kilt:alice"), msg.Sender)
}

func (s *DevSDKSuite) TestDecryptRejectsForeignReceiver() {
	body, _ := chain.NewBody(chain.BodyRejectTerms, map[string]any{})
	env, err := s.wallet.Seal(body, "did:kilt:other#encryption", s.service.Public)
	s.Require().NoError(err)

	_, err = s.messenger.Decrypt(s.ctx, *env)
	s.Error(err)
}

func (s *DevSDKSuite) TestServiceToWalletMessage() {
	body, err := chain.NewBody(chain.BodySubmitTerms, chain.SubmitTerms{Claim: chain.Claim{CTypeHash: ctype.Email.Hash}})
	s.Require().NoError(err)

	env, err := s.messenger.Encrypt(s.ctx, chain.Message{Body: body}, s.wallet.KeyURI)
	s.Require().NoError(err)
	s.Equal(serviceKeyURI, env.SenderKeyURI)

	msg, err := s.wallet.Open(s.ctx, s.keyring, *env)
	s.Require().NoError(err)
	s.Equal(chain.BodySubmitTerms, msg.Body.Type)
	s.Equal(chain.DID("did:kilt:service"), msg.Sender)
	s.NotEmpty(msg.MessageID)
}

func (s *DevSDKSuite) TestValidator() {
	v := NewValidator(ctype.Known())
	cred := s.emailCredential("a@example.com")
	s.NoError(v.ValidateCredential(s.ctx, cred))

	tampered := cred
	tampered.Claim.Contents = map[string]any{"Email": "b@example.com"}
	s.ErrorContains(v.ValidateCredential(s.ctx, tampered), "root hash")

	unknown := cred
	unknown.Claim.CTypeHash = "0x00"
	s.ErrorContains(v.ValidateCredential(s.ctx, unknown), "unknown cType")

	ownerless := cred
	ownerless.Claim.Owner = ""
	s.ErrorContains(v.ValidateCredential(s.ctx, ownerless), "no owner")
}

func (s *DevSDKSuite) TestAttestAndVerify() {
	cred := s.emailCredential("a@example.com")

	att, err := s.ledger.Attest(s.ctx, cred)
	s.Require().NoError(err)
	s.Equal(cred.RootHash, att.ClaimHash)
	s.Equal(chain.DID("did:kilt:service"), att.Owner)

	_, err = s.ledger.Attest(s.ctx, cred)
	s.ErrorIs(err, ErrAlreadyAttested)

	verified, err := s.ledger.VerifyPresentation(s.ctx, s.wallet.Present(cred, "nonce"), "nonce")
	s.Require().NoError(err)
	s.False(verified.Revoked)
	s.Equal(chain.DID("did:kilt:service"), verified.Attester)

	_, err = s.ledger.VerifyPresentation(s.ctx, s.wallet.Present(cred, "nonce"), "other")
	s.ErrorContains(err, "challenge mismatch")

	s.Require().NoError(s.ledger.Revoke(cred.RootHash))
	verified, err = s.ledger.VerifyPresentation(s.ctx, s.wallet.Present(cred, "nonce"), "nonce")
	s.Require().NoError(err)
	s.True(verified.Revoked)

	s.Equal(map[string]int{ctype.Email.Hash: 1}, s.ledger.CountByCType())
}

func (s *DevSDKSuite) TestVerifyUnattested() {
	cred := s.emailCredential("never@example.com")
	_, err := s.ledger.VerifyPresentation(s.ctx, s.wallet.Present(cred, "n"), "n")
	s.ErrorContains(err, "not attested")
}

func TestIndexerHandlerPaginates(t *testing.T) {
	ctx := context.Background()
	keyring := NewKeyring()
	wallet, err := NewWallet(keyring, "did:kilt:alice")
	require.NoError(t, err)
	ledger := NewLedger("did:kilt:service", NewValidator(ctype.Known()))

	for _, addr := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		cred, err := wallet.BuildCredential(chain.Claim{CTypeHash: ctype.Email.Hash, Contents: map[string]any{"Email": addr}})
		require.NoError(t, err)
		_, err = ledger.Attest(ctx, cred)
		require.NoError(t, err)
	}

	srv := httptest.NewServer(ledger.IndexerHandler())
	defer srv.Close()

	resp, err := http.Post(srv.URL, "application/json",
		strings.NewReader(`{"query":"query { attestations(first: 2, offset: 2) { totalCount nodes { claimHash cTypeId } } }"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Data struct {
			Attestations indexerPage `json:"attestations"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 3, body.Data.Attestations.TotalCount)
	require.Len(t, body.Data.Attestations.Nodes, 1)
	assert.Equal(t, "kilt:ctype:"+ctype.Email.Hash, body.Data.Attestations.Nodes[0].CTypeID)
}
