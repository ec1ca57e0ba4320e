// Package keystore owns "/keystore": SSH host keys and TLS certificate
// material. Grounded on original_source/src/confd/src/keystore.c, which
// stages decoded PEM material into well-known paths (SSH_PRIVATE_KEY,
// TLS_PRIVATE_KEY/TLS_CERTIFICATE) that finit conditions gate on, rather
// than explicitly restarting any daemon itself — other services simply
// block on the file existing.
package keystore

import (
	"context"
	"strings"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
	"github.com/kernelkit/confd/internal/translators/moduleutil"
)

const xpath = "/keystore"

var (
	sshPrivateKey = "/etc/ssh/ssh_host_ed25519_key"
	tlsPrivateKey = "/etc/ssl/private/hostkey.key"
	tlsCertificate = "/etc/ssl/certs/hostkey.crt"
)

type Translator struct {
	priority int
}

func New(priority int) *Translator {
	return &Translator{priority: priority}
}

func (t *Translator) Metadata() translator.Metadata {
	return translator.Metadata{Name: "keystore", Type: "keystore", XPath: xpath, Priority: t.priority}
}

func (t *Translator) HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag ports.Dagger) error {
	if ev != translator.EventChange {
		return nil
	}
	for _, e := range diff {
		switch {
		case strings.Contains(e.Path, "/asymmetric-keys/") && strings.HasSuffix(e.Path, "/private-key-format"):
			continue
		case strings.Contains(e.Path, "/asymmetric-keys/") && strings.HasSuffix(e.Path, "/cleartext-private-key"):
			if err := stage(sshPrivateKey, e); err != nil {
				return err
			}
		case strings.Contains(e.Path, "/asymmetric-keys/") && strings.HasSuffix(e.Path, "/certificate"):
			if err := stage(tlsCertificate, e); err != nil {
				return err
			}
			if err := stage(tlsPrivateKey, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func stage(path string, e configtree.DiffEntry) error {
	if e.Op == configtree.OpDelete {
		return moduleutil.AbandonArtifact(path)
	}
	pem := e.NewValue.String()
	if pem == "" {
		return nil
	}
	return moduleutil.WriteArtifactAtomically(path, []byte(pem), 0o600)
}
