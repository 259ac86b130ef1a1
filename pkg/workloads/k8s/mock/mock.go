package mock

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/opst/playground/pkg/workloads/k8s"
	kubeapps "k8s.io/api/apps/v1"
	kubecore "k8s.io/api/core/v1"
	kubelabels "k8s.io/apimachinery/pkg/labels"
)

// MockClient fakes k8s.K8sClient.
//
// Set functions to Impl to fake behaviours, and read Called to spy usage.
// Methods without Impl fail.
type MockClient struct {
	Impl struct {
		CreateService func(ctx context.Context, namespace string, svc *kubecore.Service) (*kubecore.Service, error)

		GetDeployment    func(ctx context.Context, namespace string, deplname string) (*kubeapps.Deployment, error)
		CreateDeployment func(ctx context.Context, namespace string, depl *kubeapps.Deployment) (*kubeapps.Deployment, error)
		FindDeployments  func(ctx context.Context, namespace string, selector kubelabels.Selector) ([]kubeapps.Deployment, error)
	}
	Called struct {
		CreateService atomic.Uint64

		GetDeployment    atomic.Uint64
		CreateDeployment atomic.Uint64
		FindDeployments  atomic.Uint64
	}
}

// MockClient implements k8s.K8sClient
var _ k8s.K8sClient = &MockClient{}

var errNotImplemented = errors.New("[MOCK] not implemented")

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) CreateService(ctx context.Context, namespace string, svc *kubecore.Service) (*kubecore.Service, error) {
	m.Called.CreateService.Add(1)
	if m.Impl.CreateService == nil {
		return nil, errNotImplemented
	}
	return m.Impl.CreateService(ctx, namespace, svc)
}

func (m *MockClient) GetDeployment(ctx context.Context, namespace string, deplname string) (*kubeapps.Deployment, error) {
	m.Called.GetDeployment.Add(1)
	if m.Impl.GetDeployment == nil {
		return nil, errNotImplemented
	}
	return m.Impl.GetDeployment(ctx, namespace, deplname)
}

func (m *MockClient) CreateDeployment(ctx context.Context, namespace string, depl *kubeapps.Deployment) (*kubeapps.Deployment, error) {
	m.Called.CreateDeployment.Add(1)
	if m.Impl.CreateDeployment == nil {
		return nil, errNotImplemented
	}
	return m.Impl.CreateDeployment(ctx, namespace, depl)
}

func (m *MockClient) FindDeployments(ctx context.Context, namespace string, selector kubelabels.Selector) ([]kubeapps.Deployment, error) {
	m.Called.FindDeployments.Add(1)
	if m.Impl.FindDeployments == nil {
		return nil, errNotImplemented
	}
	return m.Impl.FindDeployments(ctx, namespace, selector)
}
