package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/yaml"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
)

// defaults holds the optional, on-disk agentctl defaults file: a thin
// adaptation of the teacher's init-generated config, scoped down to the
// fields this CLI's flags actually fall back to.
type defaults struct {
	Namespace  string `json:"namespace,omitempty"`
	Model      string `json:"model,omitempty"`
	GitHubUser string `json:"githubUser,omitempty"`
}

// ClientConfig carries the flags bound at the root command and resolves
// them into a controller-runtime client plus a target namespace. It has no
// defining file in the teacher's retrieved sources (internal/cli/create.go,
// get.go, delete.go, init.go all reference a ClientConfig with this
// contract but its own source was not present in the retrieved copy), so
// this is authored fresh against the usage-site contract:
// cfg.NewClient() (client.Client, namespace string, error).
type ClientConfig struct {
	Kubeconfig string
	Context    string
	Namespace  string
	ConfigFile string
}

// DefaultConfigPath returns the default on-disk location of the agentctl
// defaults file, "$HOME/.config/agentctl/config.yaml".
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "agentctl", "config.yaml"), nil
}

func (c *ClientConfig) loadDefaults() (defaults, error) {
	path := c.ConfigFile
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return defaults{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults{}, nil
		}
		return defaults{}, fmt.Errorf("reading config file: %w", err)
	}

	var d defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return defaults{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return d, nil
}

// NewClient builds a controller-runtime client scoped to the DocsRun/CodeRun
// types plus core v1, following clientcmd's standard kubeconfig-loading
// rules (KUBECONFIG env var, then $HOME/.kube/config), and resolves the
// target namespace: --namespace flag, else the agentctl defaults file,
// else the kubeconfig context's namespace, else "default".
func (c *ClientConfig) NewClient() (client.Client, string, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if c.Kubeconfig != "" {
		loadingRules.ExplicitPath = c.Kubeconfig
	}
	overrides := &clientcmd.ConfigOverrides{}
	if c.Context != "" {
		overrides.CurrentContext = c.Context
	}

	kubeConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides)

	restConfig, err := kubeConfig.ClientConfig()
	if err != nil {
		return nil, "", fmt.Errorf("loading kubeconfig: %w", err)
	}

	namespace := c.Namespace
	if namespace == "" {
		if d, err := c.loadDefaults(); err == nil {
			namespace = d.Namespace
		}
	}
	if namespace == "" {
		ns, _, err := kubeConfig.Namespace()
		if err == nil && ns != "" {
			namespace = ns
		}
	}
	if namespace == "" {
		namespace = "default"
	}

	cl, err := client.New(restConfig, client.Options{Scheme: newScheme()})
	if err != nil {
		return nil, "", fmt.Errorf("building client: %w", err)
	}
	return cl, namespace, nil
}

// newScheme registers the core and agentrun API groups. Split into its own
// function (rather than a package-level var) so each NewClient call gets an
// independent scheme.
func newScheme() *runtime.Scheme {
	s := runtime.NewScheme()
	_ = clientgoscheme.AddToScheme(s)
	_ = agentrunv1alpha1.AddToScheme(s)
	return s
}
