package main

import (
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
	"github.com/kernelkit/confd/internal/translators/containers"
	"github.com/kernelkit/confd/internal/translators/dhcpclient"
	"github.com/kernelkit/confd/internal/translators/dhcpserver"
	"github.com/kernelkit/confd/internal/translators/dns"
	"github.com/kernelkit/confd/internal/translators/firewall"
	"github.com/kernelkit/confd/internal/translators/hardware"
	"github.com/kernelkit/confd/internal/translators/hostname"
	ifmod "github.com/kernelkit/confd/internal/translators/interface"
	"github.com/kernelkit/confd/internal/translators/keystore"
	"github.com/kernelkit/confd/internal/translators/syslog"
	"github.com/kernelkit/confd/internal/translators/sysconf"
	"github.com/kernelkit/confd/internal/translators/timedate"
	"github.com/kernelkit/confd/internal/translators/userauth"
)

// registerTranslators populates reg with every module this binary ships,
// at the priorities the daemon's default table assigns (lower runs
// first). Grounded on the teacher's cmd/streamy/plugins_import.go, which
// registers its plugin set from a single file at startup; this module's
// constructors take collaborators directly rather than relying on
// package-level init() registration, since each translator needs a
// process runner and, for the interface translator, none of its peers'
// output.
func registerTranslators(reg ports.TranslatorRegistry, proc ports.ProcessRunner, priorities map[translator.Type]int) error {
	translators := []ports.Translator{
		ifmod.New(priorities["interface"]),
		hostname.New(priorities["hostname"], proc),
		timedate.New(priorities["timedate"], proc),
		dns.New(priorities["dns"], proc),
		userauth.New(priorities["userauth"], proc),
		dhcpclient.New(priorities["dhcp-client"], proc),
		dhcpserver.New(priorities["dhcp-server"], proc),
		firewall.New(priorities["firewall"], proc),
		syslog.New(priorities["syslog"], proc),
		containers.New(priorities["containers"], proc),
		keystore.New(priorities["keystore"]),
		hardware.New(priorities["hardware"]),
		sysconf.New(priorities["sysconf"], proc),
	}

	for _, t := range translators {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return reg.ValidateDependencies()
}
