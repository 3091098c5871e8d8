package devsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"socialkyc/internal/chain"
	id "socialkyc/pkg/domain"
)

// Messenger encrypts and decrypts wallet messages on behalf of this service.
// It implements chain.Messenger and chain.ChallengeDecrypter.
type Messenger struct {
	resolver chain.DIDResolver
	keys     KeyPair
	keyURI   string
	now      func() time.Time
}

// NewMessenger uses keys as the service key published under keyURI.
func NewMessenger(resolver chain.DIDResolver, keys KeyPair, keyURI string) *Messenger {
	return &Messenger{resolver: resolver, keys: keys, keyURI: keyURI, now: time.Now}
}

// KeyURI is the service key wallets encrypt to.
func (m *Messenger) KeyURI() string {
	return m.keyURI
}

func (m *Messenger) Encrypt(ctx context.Context, msg chain.Message, receiverKeyURI string) (*chain.EncryptedMessage, error) {
	receiver, err := m.resolver.ResolveEncryptionKey(ctx, receiverKeyURI)
	if err != nil {
		return nil, fmt.Errorf("resolve receiver: %w", err)
	}
	if msg.MessageID == "" {
		msg.MessageID = id.NewMessageID().String()
	}
	if msg.CreatedAt == 0 {
		msg.CreatedAt = m.now().UnixMilli()
	}
	msg.Sender = chain.DIDFromKeyURI(m.keyURI)
	msg.Receiver = receiver.DID

	plain, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	ct, nonce, err := seal(plain, &receiver.PublicKey, &m.keys.Private)
	if err != nil {
		return nil, err
	}
	return &chain.EncryptedMessage{
		ReceiverKeyURI: receiverKeyURI,
		SenderKeyURI:   m.keyURI,
		Ciphertext:     ct,
		Nonce:          nonce,
	}, nil
}

func (m *Messenger) Decrypt(ctx context.Context, envelope chain.EncryptedMessage) (*chain.Message, error) {
	if envelope.ReceiverKeyURI != m.keyURI {
		return nil, fmt.Errorf("message is addressed to %q", envelope.ReceiverKeyURI)
	}
	sender, err := m.resolver.ResolveEncryptionKey(ctx, envelope.SenderKeyURI)
	if err != nil {
		return nil, fmt.Errorf("resolve sender: %w", err)
	}
	plain, err := open(envelope.Ciphertext, envelope.Nonce, &sender.PublicKey, &m.keys.Private)
	if err != nil {
		return nil, err
	}
	var msg chain.Message
	if err := json.Unmarshal(plain, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if msg.Sender != sender.DID {
		return nil, fmt.Errorf("sender %q does not own key %q", msg.Sender, envelope.SenderKeyURI)
	}
	return &msg, nil
}

func (m *Messenger) DecryptChallenge(_ context.Context, sender *chain.EncryptionKey, ciphertext, nonce string) (string, error) {
	plain, err := open(ciphertext, nonce, &sender.PublicKey, &m.keys.Private)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

var (
	_ chain.Messenger          = (*Messenger)(nil)
	_ chain.ChallengeDecrypter = (*Messenger)(nil)
	_ chain.DIDResolver        = (*Keyring)(nil)
)
