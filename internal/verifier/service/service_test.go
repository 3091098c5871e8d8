package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"socialkyc/internal/chain"
	"socialkyc/internal/chain/ctype"
	"socialkyc/internal/chain/devsdk"
	"socialkyc/internal/session/models"
	"socialkyc/internal/session/sessiontest"
	dErrors "socialkyc/pkg/domain-errors"
	"socialkyc/pkg/testutil"
)

const (
	serviceDID    chain.DID = "did:kilt:service"
	serviceKeyURI           = "did:kilt:service#encryption"
	alice         chain.DID = "did:kilt:alice"
)

type VerifierSuite struct {
	suite.Suite
	ctx         context.Context
	keyring     *devsdk.Keyring
	serviceKeys devsdk.KeyPair
	wallet      *devsdk.Wallet
	ledger      *devsdk.Ledger
	harness     *sessiontest.Harness
	service     *Service
	session     models.Session
	credential  chain.Credential
}

func TestVerifierSuite(t *testing.T) {
	suite.Run(t, new(VerifierSuite))
}

func (s *VerifierSuite) SetupTest() {
	s.ctx = context.Background()
	s.keyring = devsdk.NewKeyring()

	var err error
	s.serviceKeys, err = devsdk.DeriveKeyPair("verifier-test")
	s.Require().NoError(err)
	s.keyring.Register(serviceKeyURI, s.serviceKeys.Public)
	s.wallet, err = devsdk.NewWallet(s.keyring, alice)
	s.Require().NoError(err)
	s.ledger = devsdk.NewLedger(serviceDID, devsdk.NewValidator(ctype.Known()))

	s.harness = sessiontest.New(s.T())
	s.service = New(s.harness.Manager, devsdk.NewMessenger(s.keyring, s.serviceKeys, serviceKeyURI), s.ledger, ctype.Known(),
		WithLogger(sessiontest.Logger()),
		WithTrustedAttesters(serviceDID),
	)
	s.session = s.harness.Add(testutil.NewSessionBuilder().WithDID(alice).Build())

	s.credential, err = s.wallet.BuildCredential(chain.Claim{
		CTypeHash: ctype.Email.Hash,
		Contents:  map[string]any{"Email": "alice@example.com"},
	})
	s.Require().NoError(err)
	_, err = s.ledger.Attest(s.ctx, s.credential)
	s.Require().NoError(err)
}

// challenge runs request-credential and returns what the wallet received.
func (s *VerifierSuite) challenge(cTypeHash string) chain.RequestCredential {
	envelope, err := s.service.RequestCredential(s.ctx, s.session.ID, cTypeHash)
	s.Require().NoError(err)
	msg, err := s.wallet.Open(s.ctx, s.keyring, *envelope)
	s.Require().NoError(err)
	s.Require().Equal(chain.BodyRequestCredential, msg.Body.Type)

	var request chain.RequestCredential
	s.Require().NoError(msg.Body.DecodeContent(&request))
	return request
}

func (s *VerifierSuite) submit(credential chain.Credential, challenge string) *chain.EncryptedMessage {
	body, err := chain.NewBody(chain.BodySubmitCredential, []chain.Presentation{s.wallet.Present(credential, challenge)})
	s.Require().NoError(err)
	envelope, err := s.wallet.Seal(body, serviceKeyURI, s.serviceKeys.Public)
	s.Require().NoError(err)
	return envelope
}

func (s *VerifierSuite) TestRequestCredentialListsRequirements() {
	request := s.challenge(ctype.Email.Hash)

	s.Len(request.Challenge, 2*challengeBytes)
	s.Require().Len(request.CTypes, 1)
	s.Equal(ctype.Email.Hash, request.CTypes[0].CTypeHash)
	s.Equal([]chain.DID{serviceDID}, request.CTypes[0].TrustedAttesters)
	s.Equal([]string{"Email"}, request.CTypes[0].RequiredProperties)
	s.Equal(request.Challenge, s.harness.Get(s.session.ID).RequestChallenge)

	all := s.challenge("")
	s.Len(all.CTypes, len(ctype.Known().Hashes()))
	s.NotEqual(request.Challenge, all.Challenge)
}

func (s *VerifierSuite) TestRequestCredentialUnknownCType() {
	_, err := s.service.RequestCredential(s.ctx, s.session.ID, "0xdeadbeef")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *VerifierSuite) TestRequestCredentialNeedsDID() {
	anonymous := s.harness.Add(testutil.NewSessionBuilder().Build())
	_, err := s.service.RequestCredential(s.ctx, anonymous.ID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *VerifierSuite) TestVerifyConsumesChallengeOnce() {
	request := s.challenge(ctype.Email.Hash)
	envelope := s.submit(s.credential, request.Challenge)

	result, err := s.service.Verify(s.ctx, s.session.ID, *envelope)
	s.Require().NoError(err)
	s.Equal(ctype.Email.Hash, result.CTypeHash)
	s.Equal("alice@example.com", result.Contents["Email"])
	s.Equal(alice, result.Owner)
	s.Equal(serviceDID, result.Attester)
	s.Empty(s.harness.Get(s.session.ID).RequestChallenge)

	// Justification: a replayed presentation must not verify twice against one challenge.
	_, err = s.service.Verify(s.ctx, s.session.ID, *envelope)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *VerifierSuite) TestVerifyRejectsWrongChallenge() {
	s.challenge(ctype.Email.Hash)
	_, err := s.service.Verify(s.ctx, s.session.ID, *s.submit(s.credential, "00ff"))
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	s.Empty(s.harness.Get(s.session.ID).RequestChallenge, "a failed attempt still burns the challenge")
}

func (s *VerifierSuite) TestVerifyRejectsUnattestedCredential() {
	request := s.challenge("")
	unattested, err := s.wallet.BuildCredential(chain.Claim{
		CTypeHash: ctype.Email.Hash,
		Contents:  map[string]any{"Email": "other@example.com"},
	})
	s.Require().NoError(err)

	_, err = s.service.Verify(s.ctx, s.session.ID, *s.submit(unattested, request.Challenge))
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *VerifierSuite) TestVerifyRejectsRevokedCredential() {
	s.Require().NoError(s.ledger.Revoke(s.credential.RootHash))
	request := s.challenge(ctype.Email.Hash)

	_, err := s.service.Verify(s.ctx, s.session.ID, *s.submit(s.credential, request.Challenge))
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *VerifierSuite) TestVerifyRejectsUntrustedAttester() {
	s.service.trusted = []chain.DID{"did:kilt:someone-else"}
	request := s.challenge(ctype.Email.Hash)

	_, err := s.service.Verify(s.ctx, s.session.ID, *s.submit(s.credential, request.Challenge))
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *VerifierSuite) TestVerifyRejectsForeignSender() {
	request := s.challenge(ctype.Email.Hash)
	mallory, err := devsdk.NewWallet(s.keyring, "did:kilt:mallory")
	s.Require().NoError(err)
	body, err := chain.NewBody(chain.BodySubmitCredential, []chain.Presentation{mallory.Present(s.credential, request.Challenge)})
	s.Require().NoError(err)
	envelope, err := mallory.Seal(body, serviceKeyURI, s.serviceKeys.Public)
	s.Require().NoError(err)

	_, err = s.service.Verify(s.ctx, s.session.ID, *envelope)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.NotEmpty(s.harness.Get(s.session.ID).RequestChallenge, "foreign messages do not touch the challenge")
}

func (s *VerifierSuite) TestVerifyWithoutRequest() {
	_, err := s.service.Verify(s.ctx, s.session.ID, *s.submit(s.credential, "00ff"))
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *VerifierSuite) TestVerifyUnexpectedBody() {
	s.challenge(ctype.Email.Hash)
	body, err := chain.NewBody(chain.BodyRequestAttestation, chain.RequestAttestation{Credential: s.credential})
	s.Require().NoError(err)
	envelope, err := s.wallet.Seal(body, serviceKeyURI, s.serviceKeys.Public)
	s.Require().NoError(err)

	_, err = s.service.Verify(s.ctx, s.session.ID, *envelope)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
