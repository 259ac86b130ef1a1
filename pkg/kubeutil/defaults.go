package kubeutil

import (
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// FindKubeconfig returns the path of kubeconfig to be used.
//
// It searches kubeconfig from (latter wins)
//
// - `~/.kube/config`
//
// - environmental variable `KUBECONFIG`
//
// - explicit, typically given by the command line flag `-kubeconfig`
//
// Paths which are not regular files are skipped.
// When nothing is found, it returns empty string.
func FindKubeconfig(explicit string) string {
	kubeconfig := ""

	// priority 1 (least): ~/.kube/config
	if home := homedir.HomeDir(); home != "" {
		if p := filepath.Join(home, ".kube", "config"); isFile(p) {
			kubeconfig = p
		}
	}

	// priority 2: envvar KUBECONFIG
	if k := os.Getenv("KUBECONFIG"); k != "" && isFile(k) {
		kubeconfig = k
	}

	// priority 3 (most): explicit
	if explicit != "" && isFile(explicit) {
		kubeconfig = explicit
	}

	return kubeconfig
}

// Connect creates *kubernetes.Clientset.
//
// When no kubeconfig is found with FindKubeconfig(explicit), it tries in-cluster config.
func Connect(explicit string) (*kubernetes.Clientset, error) {
	var config *rest.Config
	var err error
	if kubeconfig := FindKubeconfig(explicit); kubeconfig == "" {
		config, err = rest.InClusterConfig()
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, err
	}
	return kubernetes.NewForConfig(config)
}

func isFile(p string) bool {
	s, err := os.Stat(p)
	return err == nil && !s.IsDir()
}
