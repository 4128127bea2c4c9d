package ingress

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// Client lists ingress rules from the cluster. Nothing is cached, every
// Fetch is a fresh List across all namespaces.
type Client struct {
	clientset kubernetes.Interface
}

// NewClient creates a client from in-cluster credentials, the given
// kubeconfig, ~/.kube/config or $KUBECONFIG, in that order.
func NewClient(kubeconfig string) (*Client, error) {
	cfg, err := buildConfig(kubeconfig)
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return NewClientWithClientset(clientset), nil
}

// NewClientWithClientset wraps an existing clientset.
func NewClientWithClientset(clientset kubernetes.Interface) *Client {
	return &Client{clientset: clientset}
}

// Fetch returns one Rule per rule of every Ingress in the cluster.
func (c *Client) Fetch(ctx context.Context) ([]Rule, error) {
	list, err := c.clientset.NetworkingV1().Ingresses(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list ingresses: %w", err)
	}

	return Rules(list.Items), nil
}

// Rules flattens ingresses into rules. An empty host is reported as nil.
func Rules(items []networkingv1.Ingress) []Rule {
	var rules []Rule

	for i := range items {
		ing := &items[i]

		for _, r := range ing.Spec.Rules {
			rule := Rule{Ingress: ing.Name, Namespace: ing.Namespace}
			if r.Host != "" {
				host := r.Host
				rule.Host = &host
			}

			rules = append(rules, rule)
		}
	}

	return rules
}

func buildConfig(kubeconfig string) (*rest.Config, error) {
	if config, err := rest.InClusterConfig(); err == nil {
		return config, nil
	}

	if kubeconfig == "" {
		if home := homedir.HomeDir(); home != "" {
			kubeconfig = filepath.Join(home, ".kube", "config")
		}
	}

	if kubeconfig != "" {
		if _, err := os.Stat(kubeconfig); err == nil {
			return clientcmd.BuildConfigFromFlags("", kubeconfig)
		}
	}

	if kc := os.Getenv("KUBECONFIG"); kc != "" {
		return clientcmd.BuildConfigFromFlags("", kc)
	}

	return nil, fmt.Errorf("no kubernetes config found")
}
