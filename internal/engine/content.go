package engine

// Canned artifact bodies published by the script.

const feasibilityStudy = `# Feasibility Study

## Risks
1. Real-time latency
2. AI model cost
3. Data privacy compliance

## Recommendation
Proceed with Microservices architecture.`

const mockPRD = `{
 "prd": {
  "title": "Enterprise Team Task Manager",
  "vision": "High-velocity task management platform for engineering teams with automated AI optimizations.",
  "user_stories": [
   {"as_a": "Team Lead", "i_want": "to assign tasks", "so_that": "collaboration is seamless"},
   {"as_a": "Dev", "i_want": "git integration", "so_that": "status updates are auto"}
  ],
  "requirements": ["Functional: OAuth2, CRUD, Real-time", "Non-functional: <100ms latency"],
  "acceptance_criteria": [],
  "competitive_analysis": {}
 }
}`

const themeCSS = `:root {
  --primary: #3b82f6;
  --background: #0f172a;
  --surface: #1e293b;
  --text: #f8fafc;
}`

const systemDesign = `{
 "pattern": "Microservices",
 "stack": {
  "backend": "FastAPI",
  "frontend": "React"
 },
 "database": "PostgreSQL"
}`

const mainPy = `from fastapi import FastAPI

app = FastAPI(title="Task Manager API")

@app.get("/")
def read_root():
    return {"Status": "Active"}`

const appTSX = `import React from 'react';

export const App = () => {
  return <div className="p-4">AdvancedAI DevTeam Generated App</div>;
};`

const devSh = `#!/bin/bash
# Boots backend and frontend
uvicorn backend.app.main:app --reload &
cd frontend && npm start`

const promptsYAML = `system_prompts:
  task_classifier:
    role: "Classifier"
    instruction: "You are an AI that classifies engineering tasks into categories."
  code_generator:
    role: "Developer"
    instruction: "Generate clean, pythonic code following PEP-8 standards."
models:
  embedding: "text-embedding-004"
  generation: "gemini-1.5-pro"`

const deploymentYAML = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: backend
spec:
  replicas: 3
  selector:
    matchLabels:
      app: backend`

const mainTF = `provider "aws" {
  region = "us-east-1"
}

resource "aws_s3_bucket" "artifacts" {
  bucket = "devteam-artifacts"
}`

const readme = `# Project Overview
Generated by AdvancedAI DevTeam.

## Setup
Run ./scripts/setup.sh`
