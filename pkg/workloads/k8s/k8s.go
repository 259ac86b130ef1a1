package k8s

import (
	"context"

	kubeapps "k8s.io/api/apps/v1"
	kubecore "k8s.io/api/core/v1"
	kubeapimeta "k8s.io/apimachinery/pkg/apis/meta/v1"
	kubelabels "k8s.io/apimachinery/pkg/labels"
	k8s "k8s.io/client-go/kubernetes"
)

// subset of k8s.Clientset
type K8sClient interface {
	CreateService(ctx context.Context, namespace string, svc *kubecore.Service) (*kubecore.Service, error)

	GetDeployment(ctx context.Context, namespace string, deplname string) (*kubeapps.Deployment, error)
	CreateDeployment(ctx context.Context, namespace string, depl *kubeapps.Deployment) (*kubeapps.Deployment, error)
	FindDeployments(ctx context.Context, namespace string, selector kubelabels.Selector) ([]kubeapps.Deployment, error)
}

// A wrapper for the type k8s.Interface; because it does not prefer method chain-style invocations of that type.
//
// Errors from the API server are classified into ErrMissing and ErrConflict.
// Others are passed through as they are.
type k8sClient struct {
	client k8s.Interface
}

// type check: k8sClient implements K8sClient
var _ K8sClient = &k8sClient{}

func WrapK8sClient(c k8s.Interface) K8sClient {
	return &k8sClient{client: c}
}

func (k *k8sClient) CreateService(ctx context.Context, namespace string, svc *kubecore.Service) (*kubecore.Service, error) {
	created, err := k.client.CoreV1().Services(namespace).Create(ctx, svc, kubeapimeta.CreateOptions{})
	return created, classify(err)
}

func (k *k8sClient) GetDeployment(ctx context.Context, namespace string, deplname string) (*kubeapps.Deployment, error) {
	depl, err := k.client.AppsV1().Deployments(namespace).Get(ctx, deplname, kubeapimeta.GetOptions{})
	return depl, classify(err)
}

func (k *k8sClient) CreateDeployment(ctx context.Context, namespace string, depl *kubeapps.Deployment) (*kubeapps.Deployment, error) {
	created, err := k.client.AppsV1().Deployments(namespace).Create(ctx, depl, kubeapimeta.CreateOptions{})
	return created, classify(err)
}

func (k *k8sClient) FindDeployments(ctx context.Context, namespace string, selector kubelabels.Selector) ([]kubeapps.Deployment, error) {
	resp, err := k.client.AppsV1().Deployments(namespace).List(ctx, kubeapimeta.ListOptions{
		LabelSelector: selector.String(),
	})
	if err != nil {
		return nil, classify(err)
	}
	return resp.Items, nil
}
